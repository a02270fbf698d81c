package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter собирает маршруты API
func NewRouter(h *Handler, auth *Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", h.CreateBooking)
			r.Get("/me", h.MyBookings)
			r.Get("/{id}", h.GetBooking)
			r.Patch("/{id}/status", h.UpdateStatus)
			r.Post("/{id}/confirm", h.ConfirmCompletion)
		})

		r.Put("/me/telegram", h.LinkTelegram)
		r.Put("/admin/settings/{key}", h.UpdateSetting)
	})

	return r
}
