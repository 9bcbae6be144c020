package server

import (
	"net/http"

	"github.com/cloo-solutions/agrovisor/internal/api/handlers"
	"github.com/cloo-solutions/agrovisor/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	QueryHandler     *handlers.QueryHandler
	SearchHandler    *handlers.SearchHandler
	DocumentsHandler *handlers.DocumentsHandler
	HealthHandler    *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", cfg.HealthHandler.Check)

	r.Post("/query", cfg.QueryHandler.Ask)
	r.Post("/search", cfg.SearchHandler.Search)
	r.Get("/documents", cfg.DocumentsHandler.List)

	return r
}
