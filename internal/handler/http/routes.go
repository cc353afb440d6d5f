package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	router.Group(func(r chi.Router) {
		r.Post("/api/devices/register", h.registerDevice)

		r.Post("/api/sync", h.sync)
		r.Post("/api/sync/pull", h.pull)
		r.Post("/api/sync/push", h.push)

		r.Get("/api/conflicts", h.listConflicts)
		r.Post("/api/conflicts/{conflictID}/resolve", h.resolveConflict)

		r.Get("/api/version", h.getServerVersion)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
