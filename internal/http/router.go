package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", h.Health)

	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/merge", h.Merge)
		r.Post("/items", h.AddItem)
		r.Route("/items/{productId}", func(r chi.Router) {
			r.Delete("/", h.DeleteItem)
			r.Post("/remove", h.RemoveItem)
			r.Post("/save", h.SaveForLater)
			r.Post("/move", h.MoveToCart)
		})
	})

	return r
}
