package retrieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/agrovisor/internal/domain"
	"github.com/cloo-solutions/agrovisor/internal/index"
)

// QueryEmbedder embeds a single query text with the same model used at
// ingestion time.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex serves nearest-neighbor lookups over stored chunks.
type VectorIndex interface {
	Query(ctx context.Context, embedding []float32, k int) ([]index.Hit, error)
}

// Config bounds how many chunks come back and how weak a match may be.
type Config struct {
	K        int
	MinScore float32
}

func DefaultConfig() Config {
	return Config{K: 5, MinScore: 0.25}
}

// Retriever turns a query into scored advisory chunks. Scores are cosine
// similarity in [0, 1]: 1 minus the index's cosine distance, higher is better.
type Retriever struct {
	embedder QueryEmbedder
	index    VectorIndex
	cfg      Config
}

func NewRetriever(embedder QueryEmbedder, idx VectorIndex, cfg Config) *Retriever {
	if cfg.K <= 0 {
		cfg.K = DefaultConfig().K
	}
	return &Retriever{embedder: embedder, index: idx, cfg: cfg}
}

// Retrieve returns at most K chunks scoring at least MinScore, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	embedding, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := r.index.Query(ctx, embedding, r.cfg.K)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}

	scored := make([]domain.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		score := 1 - h.Distance
		if score < r.cfg.MinScore {
			continue
		}
		scored = append(scored, domain.ScoredChunk{Chunk: h.Chunk, Score: score})
	}
	return scored, nil
}
