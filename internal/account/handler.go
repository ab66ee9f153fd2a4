package account

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/gobank/gobank/internal/apperr"
	"github.com/gobank/gobank/internal/middleware"
)

// Handler exposes account HTTP endpoints.
type Handler struct {
	svc  *Service
	repo Repository
}

// NewHandler builds an account handler.
func NewHandler(svc *Service, repo Repository) *Handler {
	return &Handler{svc: svc, repo: repo}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// Register creates a new account.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrMissingFields
	}
	acct, err := h.svc.Register(c.UserContext(), req.Email, req.Password, req.FullName)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"id":       acct.ID,
		"email":    acct.Email,
		"fullName": acct.FullName,
		"message":  "Registration successful",
	})
}

// Me returns the authenticated account's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	accountID, _ := c.Locals(middleware.AccountIDKey).(string)
	if accountID == "" {
		return apperr.New(apperr.KindAuth, "not authenticated")
	}
	acct, err := h.repo.FindByID(c.UserContext(), accountID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"id":       acct.ID,
		"email":    acct.Email,
		"fullName": acct.FullName,
	})
}
