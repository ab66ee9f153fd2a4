package chat

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/gobank/gobank/internal/apperr"
)

// Handler exposes the chat proxy endpoint.
type Handler struct {
	proxy *Proxy
}

// NewHandler builds a chat handler.
func NewHandler(proxy *Proxy) *Handler {
	return &Handler{proxy: proxy}
}

type chatRequest struct {
	Messages []Message `json:"messages"`
}

// Chat forwards the conversation upstream and passes the upstream status and
// body back to the client.
func (h *Handler) Chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.KindValidation, "messages are required")
	}
	if len(req.Messages) == 0 {
		return apperr.New(apperr.KindValidation, "messages are required")
	}

	status, body, err := h.proxy.Complete(c.UserContext(), req.Messages)
	if err != nil {
		return err
	}

	// upstream errors sometimes arrive as plain text; keep the response JSON
	if !json.Valid(body) {
		wrapped, err := json.Marshal(fiber.Map{"error": string(body)})
		if err != nil {
			return err
		}
		body = wrapped
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(status).Send(body)
}
