package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter builds the chi router with the global middleware stack.
func NewRouter(h *Handler, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(log))             // structured access log
	r.Use(CORS)

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/health", HealthCheck)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/{id}", h.GetEvent)
		r.Get("/{id}/capacity", h.EventCapacity)
		r.Post("/{id}/bookings", h.CreateBooking)
		r.Get("/{id}/bookings", h.ListEventBookings)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Get("/", h.ListUserBookings)
		r.Post("/{id}/cancel", h.CancelBooking)
	})

	r.Route("/moderation", func(r chi.Router) {
		r.Post("/classify", h.Classify)
		r.Get("/status", h.ModerationStatusHandler)
	})

	r.Route("/treehole/posts", func(r chi.Router) {
		r.Post("/", h.SubmitPost)
		r.Get("/", h.ListPosts)
	})

	return r
}
