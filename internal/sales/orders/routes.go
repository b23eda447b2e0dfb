package orders

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/sales-orders", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Show)
		r.Put("/{id}", h.Update)
		r.Post("/{id}/confirm", h.Confirm)
		r.Post("/{id}/complete", h.Complete)
		r.Post("/{id}/cancel", h.Cancel)
	})
}
