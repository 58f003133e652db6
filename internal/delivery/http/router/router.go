package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/crawler-panel/internal/delivery/http/handler"
	"github.com/user/crawler-panel/internal/delivery/http/middleware"
	"github.com/user/crawler-panel/internal/entity"
)

func New(h *handler.Handler, sessions *middleware.Sessions) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", h.HandleHealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/status", h.HandleStatusJSON)

	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)

		r.Get("/", h.HandleHome)
		r.Get("/start", h.HandleStart)
		r.Get("/status", h.HandleStatusPage)
		r.Post("/status/refresh", h.HandleStatusRefresh)

		for _, op := range entity.Operations {
			path := "/" + string(op)
			r.Get(path, h.HandleForm(op))
			r.Post(path, h.HandleSubmit(op))
		}
	})

	r.NotFound(h.HandleNotFound)

	return r
}
