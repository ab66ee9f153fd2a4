package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID ensures each request carries a stable identifier. A client-supplied
// X-Request-ID is reused so a browser session can be correlated across the
// audit log; otherwise a fresh one is minted. The id is always mirrored onto
// the response.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(requestIDHeader)
		if reqID == "" || len(reqID) > 64 {
			reqID = uuid.NewString()
		}

		c.Locals(requestIDHeader, reqID)
		c.Set(requestIDHeader, reqID)

		return c.Next()
	}
}

// RequestIDFrom returns the request id stored by RequestID, or "" when the
// middleware did not run.
func RequestIDFrom(c *fiber.Ctx) string {
	reqID, _ := c.Locals(requestIDHeader).(string)
	return reqID
}
