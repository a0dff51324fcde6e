package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/setgrouper/internal/api"
	apiMiddleware "github.com/phrazzld/setgrouper/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	decklistHandler := api.NewDecklistHandler(app.logger)
	setsHandler := api.NewSetsHandler(app.cardSetService, app.logger)
	cacheHandler := api.NewCacheHandler(app.cache, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/decklist/parse", decklistHandler.Parse)

		r.Post("/sets", setsHandler.FetchSets)
		r.Post("/sets/view", setsHandler.ViewSets)
		r.Post("/sets/prune", setsHandler.PruneSets)
		r.Post("/sets/export", setsHandler.ExportSets)

		r.Get("/cache/stats", cacheHandler.Stats)
		r.Get("/cache/keys", cacheHandler.Keys)
		r.Delete("/cache", cacheHandler.Clear)
		r.Delete("/cache/{key}", cacheHandler.Remove)
		r.Post("/cache/evict", cacheHandler.Evict)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	return r
}
