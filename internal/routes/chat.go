package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gobank/gobank/internal/chat"
)

// RegisterChatRoutes wires the AI chatbot proxy endpoint.
func RegisterChatRoutes(r fiber.Router, h *chat.Handler) {
	r.Post("/chat", h.Chat)
}
