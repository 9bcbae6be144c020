package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cloo-solutions/agrovisor/internal/api"
)

// DatabasePinger checks database reachability.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// QueryLogStats reports recent query volume.
type QueryLogStats interface {
	RecentCount(ctx context.Context, window time.Duration) (int, error)
}

type HealthHandler struct {
	db    DatabasePinger
	stats QueryLogStats
}

// NewHealthHandler creates the health handler. Both dependencies may be nil;
// the endpoint then reports process liveness only.
func NewHealthHandler(db DatabasePinger, stats QueryLogStats) *HealthHandler {
	return &HealthHandler{db: db, stats: stats}
}

type HealthResponse struct {
	Status          string `json:"status"`
	Database        string `json:"database,omitempty"`
	QueriesLastHour *int   `json:"queries_last_hour,omitempty"`
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			api.JSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = "ok"
	}

	if h.stats != nil {
		if n, err := h.stats.RecentCount(r.Context(), time.Hour); err == nil {
			resp.QueriesLastHour = &n
		}
	}

	api.JSON(w, http.StatusOK, resp)
}
