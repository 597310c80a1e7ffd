package line

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/line/webhook", h.HandleWebhook)
}
