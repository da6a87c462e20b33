package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/schoolink-dev/schoolink/internal/middleware/metrics"
	"github.com/schoolink-dev/schoolink/internal/setup"
)

// New creates and configures the chi router with all the routes.
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:8081"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(metrics.Middleware)

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/messages", func(r chi.Router) {
		r.Use(authMw.NeedAuth())

		r.Get("/", h.GetInbox)
		r.Get("/sent", h.GetSent)
		r.Get("/announcements", h.GetAnnouncements)
		r.Get("/unread_count", h.GetUnreadCounts)
		r.Post("/read", h.MarkManyRead)

		r.Get("/{message}", h.GetMessage)
		r.Get("/{message}/thread", h.GetThread)
		r.Post("/{message}/reply", h.ReplyMessage)
		r.Post("/{message}/read", h.MarkMessageRead)
		r.Delete("/{message}", h.DeleteMessage)

		// Sending is staff-only at the route level; the service's permission
		// gate applies the per-type rules underneath.
		r.With(authMw.StaffOnly()).Post("/", h.CreateMessage)
	})

	return r
}
