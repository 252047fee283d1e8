package http

import (
	"net/http"

	"weblog-analytics/internal/ingestors"
	"weblog-analytics/internal/queries"
	"weblog-analytics/internal/shared/loggers"
	"weblog-analytics/internal/shared/metrics"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(ingestionService ingestors.IngestionService, queryService queries.QueryService, httpLogger loggers.Logger) http.Handler {
	router := chi.NewRouter()
	setupMiddleware(router, httpLogger)

	// Initialize handlers
	ingestHandler := NewIngestHandler(ingestionService)
	queryHandler := NewQueryHandler(queryService)
	servicesHandler := NewServicesHandler(queryService)

	// Routes
	router.Post("/services/{service}/logs", errorHandlingAdapter(ingestHandler))
	router.Get("/services/{service}/query", errorHandlingAdapter(queryHandler))
	router.Get("/services", errorHandlingAdapter(servicesHandler))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/metrics", metrics.PromHTTP.Handler().ServeHTTP)

	return router
}
