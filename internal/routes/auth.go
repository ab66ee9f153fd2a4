package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gobank/gobank/internal/account"
	"github.com/gobank/gobank/internal/session"
)

// RegisterAuthRoutes wires registration and session endpoints.
func RegisterAuthRoutes(r fiber.Router, accounts *account.Handler, sessions *session.Handler, loginLimiter fiber.Handler) {
	r.Post("/register", accounts.Register)
	if loginLimiter != nil {
		r.Post("/login", loginLimiter, sessions.Login)
	} else {
		r.Post("/login", sessions.Login)
	}
	r.Post("/logout", sessions.Logout)
}
