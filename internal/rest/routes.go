package rest

import (
	"github.com/go-chi/chi/v5"
)

// Register mounts the conversation endpoints under /chat/api.
func (h *Handler) Register(router chi.Router) {
	router.Route("/chat/api", func(r chi.Router) {
		r.Get("/conversations", h.GetConversations)
		r.Get("/conversation/{otherId}", h.GetConversation)
		r.Post("/conversation/{otherId}/read", h.MarkAsRead)
		r.Post("/send", h.SendMessage)
		r.Get("/realtime/token", h.GetConnectAccessToken)
		r.Get("/realtime/token/{otherId}", h.GetSubscribeToken)
	})
}
