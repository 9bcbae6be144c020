package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cloo-solutions/agrovisor/internal/api"
	"github.com/cloo-solutions/agrovisor/internal/domain"
)

// ChunkSearcher returns scored advisory chunks for a query.
type ChunkSearcher interface {
	Retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, error)
}

type SearchHandler struct {
	retriever ChunkSearcher
}

func NewSearchHandler(retriever ChunkSearcher) *SearchHandler {
	return &SearchHandler{retriever: retriever}
}

type SearchRequest struct {
	Query string `json:"query"`
}

type SearchResultResponse struct {
	ID        string  `json:"id"`
	Source    string  `json:"source"`
	PageStart int     `json:"page_start"`
	PageEnd   int     `json:"page_end"`
	Heading   string  `json:"heading,omitempty"`
	Content   string  `json:"content"`
	Score     float32 `json:"score"`
}

type SearchResponse struct {
	Results []*SearchResultResponse `json:"results"`
}

// Search runs a raw similarity search against the advisory index. It exposes
// the retrieval stage on its own, without routing or composition.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	scored, err := h.retriever.Retrieve(r.Context(), req.Query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	results := make([]*SearchResultResponse, len(scored))
	for i, s := range scored {
		results[i] = &SearchResultResponse{
			ID:        s.ID,
			Source:    s.Source,
			PageStart: s.PageStart,
			PageEnd:   s.PageEnd,
			Heading:   s.Heading,
			Content:   s.Text,
			Score:     s.Score,
		}
	}

	api.Success(w, http.StatusOK, SearchResponse{Results: results})
}
