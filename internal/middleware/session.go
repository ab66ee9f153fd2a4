package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/gobank/gobank/internal/apperr"
)

// AccountIDKey is the Locals key holding the authenticated account id.
const AccountIDKey = "account_id"

// SessionVerifier validates a session token and returns the owning account id.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// SessionAuth guards routes behind a valid session cookie. Any failure
// (missing cookie, bad signature, expiry, revocation) fails closed with 401.
func SessionAuth(cookieName string, sessions SessionVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(cookieName)
		if token == "" {
			return apperr.New(apperr.KindAuth, "not authenticated")
		}
		accountID, err := sessions.Verify(c.UserContext(), token)
		if err != nil {
			return err
		}
		c.Locals(AccountIDKey, accountID)
		return c.Next()
	}
}
