package session

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gobank/gobank/internal/account"
	"github.com/gobank/gobank/internal/apperr"
)

// Handler exposes login/logout endpoints that exchange credentials for a
// session cookie.
type Handler struct {
	accounts *account.Service
	sessions *Service
	secure   bool
}

// NewHandler builds a session handler. secure controls the cookie Secure
// flag and should be true in production.
func NewHandler(accounts *account.Service, sessions *Service, secure bool) *Handler {
	return &Handler{accounts: accounts, sessions: sessions, secure: secure}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login validates credentials, issues a session token, and sets it as an
// HTTP-only cookie.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.KindValidation, "email and password required")
	}
	if req.Email == "" || req.Password == "" {
		return apperr.New(apperr.KindValidation, "email and password required")
	}

	acct, err := h.accounts.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	token, err := h.sessions.Issue(c.UserContext(), acct.ID)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(h.sessions.TTL()),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"id":       acct.ID,
		"email":    acct.Email,
		"fullName": acct.FullName,
		"message":  "Login successful",
	})
}

// Logout revokes the current session token, if any, and clears the cookie.
func (h *Handler) Logout(c *fiber.Ctx) error {
	if token := c.Cookies(CookieName); token != "" {
		if err := h.sessions.Revoke(c.UserContext(), token); err != nil {
			return err
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})

	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Logged out"})
}
