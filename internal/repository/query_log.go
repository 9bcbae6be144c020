package repository

import (
	"context"
	"time"

	"github.com/cloo-solutions/agrovisor/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QueryLogRepository stores query logs for evaluation/feedback loops.
type QueryLogRepository struct {
	pool *pgxpool.Pool
}

func NewQueryLogRepository(pool *pgxpool.Pool) *QueryLogRepository {
	return &QueryLogRepository{pool: pool}
}

func (r *QueryLogRepository) Create(ctx context.Context, entry service.QueryLogEntry) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO query_logs (query, intent, state, village, state_name, source_count, answer, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		entry.Query,
		string(entry.Intent),
		string(entry.State),
		nullableString(entry.Village),
		nullableString(entry.StateName),
		entry.SourceCount,
		nullableString(entry.Answer),
		entry.Duration.Milliseconds(),
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// RecentCount returns the number of queries logged in the given window, used
// by the health endpoint.
func (r *QueryLogRepository) RecentCount(ctx context.Context, window time.Duration) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM query_logs WHERE created_at > $1`,
		time.Now().UTC().Add(-window),
	).Scan(&n)
	return n, err
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
