package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_PostSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "wheat sowing time", req.Query)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"answer": "Sow in November.", "intent": "advisory"}}`))
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig(srv.URL)
	resp, err := api.Post("/query", QueryRequest{Query: "wheat sowing time"})
	require.NoError(t, err)

	var ans QueryResponse
	require.NoError(t, json.Unmarshal(resp.Data, &ans))
	assert.Equal(t, "Sow in November.", ans.Answer)
}

func TestAPIClient_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "query is required"}`))
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig(srv.URL)
	_, err := api.Post("/query", QueryRequest{})
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "query is required", apiErr.Message)
}

func TestAPIClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig(srv.URL)
	_, err := api.Get("/documents")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "upstream exploded")
}

func TestParseLocationArg(t *testing.T) {
	village, state, err := parseLocationArg("Moga, Punjab")
	require.NoError(t, err)
	assert.Equal(t, "Moga", village)
	assert.Equal(t, "Punjab", state)

	_, _, err = parseLocationArg("Moga")
	assert.Error(t, err)

	_, _, err = parseLocationArg(", Punjab")
	assert.Error(t, err)
}
