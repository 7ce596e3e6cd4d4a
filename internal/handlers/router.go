package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// Router builds the HTTP routes. rateLimit is the number of prediction
// requests allowed per client IP each minute; zero disables limiting.
func (h *Handler) Router(rateLimit int) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthcheck", h.HandleHealthcheck)

	r.Route("/api", func(r chi.Router) {
		if rateLimit > 0 {
			r.Use(httprate.Limit(rateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		}
		r.Post("/predictive_rating", h.HandlePredictiveRating)
	})

	return r
}
