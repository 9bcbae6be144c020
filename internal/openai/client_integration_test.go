//go:build integration

package openai

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_Embed_RealAPI(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set, skipping integration test")
	}

	client := NewClient(apiKey)
	ctx := context.Background()

	vectors, err := client.Embed(ctx, []string{"wheat sowing schedule for Punjab"})

	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Len(t, vectors[0], DefaultEmbeddingDimensions)
}
