package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/haiphamcoder/tracehub/internal/adapter/api/handler"
	"github.com/haiphamcoder/tracehub/internal/adapter/api/middleware"
	"github.com/haiphamcoder/tracehub/internal/domain"
)

func newBaseRouter(logger *slog.Logger, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.Logging(logger))

	r.Get("/api/v1/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

// NewIngestRouter creates the HTTP router for the ingest gateway.
func NewIngestRouter(ingestHandler *handler.IngestHandler, logger *slog.Logger, allowedOrigins []string) http.Handler {
	r := newBaseRouter(logger, allowedOrigins)
	r.Post("/api/v1/logs", ingestHandler.ServeHTTP)
	return r
}

// NewQueryRouter creates the HTTP router for the query service.
func NewQueryRouter(searchHandler *handler.SearchHandler, logger *slog.Logger, allowedOrigins []string) http.Handler {
	r := newBaseRouter(logger, allowedOrigins)
	r.Post("/api/v1/search", searchHandler.ServeHTTP)
	return r
}

// NewNotifierRouter creates the HTTP router for the alert rule API.
func NewNotifierRouter(registry domain.RuleRegistry, logger *slog.Logger) http.Handler {
	r := newBaseRouter(logger, []string{"*"})

	rulesHandler := handler.NewAlertRulesHandler(registry, logger)
	r.Route("/api/v1/alerts/rules", func(r chi.Router) {
		r.Get("/", rulesHandler.List)
		r.Put("/{name}", rulesHandler.Put)
		r.Delete("/{name}", rulesHandler.Delete)
	})

	return r
}
