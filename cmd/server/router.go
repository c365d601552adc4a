package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/memo-tagger/internal/api"
	apiMiddleware "github.com/phrazzld/memo-tagger/internal/api/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// batchTimeout bounds a synchronous enrichment batch request.
const batchTimeout = 10 * time.Minute

// setupRouter creates the router with all routes and middleware.
func (a *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.Trace(a.logger))
	r.Use(middleware.Recoverer)

	authMiddleware := apiMiddleware.NewAuthMiddleware(a.jwtService)
	authHandler := api.NewAuthHandler(a.jwtService)
	memoHandler := api.NewMemoHandler(a.memoService)
	enrichmentHandler := api.NewEnrichmentHandler(a.enrichmentService)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/auth/token", authHandler.RenewToken)

		r.Route("/memos", func(r chi.Router) {
			r.Get("/", memoHandler.ListMemos)
			r.Post("/", memoHandler.CreateMemo)
			r.Post("/import", memoHandler.ImportMemos)
			r.Get("/search", memoHandler.SearchMemos)
			r.Delete("/{id}", memoHandler.DeleteMemo)
			r.Post("/{id}/tags", memoHandler.RetagMemo)
		})
		r.Get("/tags", memoHandler.ListTags)

		r.Route("/enrichment", func(r chi.Router) {
			r.With(middleware.Timeout(batchTimeout)).Post("/batch", enrichmentHandler.RunBatch)
			r.Get("/remaining", enrichmentHandler.Remaining)
			r.Post("/runs", enrichmentHandler.StartRun)
			r.Get("/runs/{id}", enrichmentHandler.GetRun)
			r.Delete("/runs/{id}", enrichmentHandler.CancelRun)
		})
	})

	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if a.metrics != nil {
		gatherer = a.metrics
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			a.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
