package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cloo-solutions/agrovisor/internal/api"
	"github.com/cloo-solutions/agrovisor/internal/service"
)

// AdvisoryAnswerer drives one query through routing, aggregation, and
// composition.
type AdvisoryAnswerer interface {
	Answer(ctx context.Context, q service.Question) (service.Answer, error)
}

type QueryHandler struct {
	svc AdvisoryAnswerer
}

func NewQueryHandler(svc AdvisoryAnswerer) *QueryHandler {
	return &QueryHandler{svc: svc}
}

type QueryRequest struct {
	Query   string `json:"query"`
	Village string `json:"village,omitempty"`
	State   string `json:"state,omitempty"`
}

type QueryResponse struct {
	Answer      string `json:"answer"`
	Intent      string `json:"intent"`
	State       string `json:"state"`
	SourceCount int    `json:"source_count"`
}

// Ask answers a single advisory query.
func (h *QueryHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	ans, err := h.svc.Answer(r.Context(), service.Question{
		Query:   req.Query,
		Village: req.Village,
		State:   req.State,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, QueryResponse{
		Answer:      ans.Text,
		Intent:      string(ans.Intent),
		State:       string(ans.State),
		SourceCount: ans.SourceCount,
	})
}
