package bank

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/gobank/gobank/internal/apperr"
	"github.com/gobank/gobank/internal/ledger"
	"github.com/gobank/gobank/internal/middleware"
)

// Handler exposes the banking HTTP endpoints. All of them require an
// authenticated session.
type Handler struct {
	svc          *Service
	historyLimit int
}

// NewHandler builds a bank handler.
func NewHandler(svc *Service, historyLimit int) *Handler {
	return &Handler{svc: svc, historyLimit: historyLimit}
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type sendMoneyRequest struct {
	ToEmail string          `json:"toEmail"`
	Amount  decimal.Decimal `json:"amount"`
}

type entryResponse struct {
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	OtherParty *string         `json:"other_party"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Balance returns the current balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	balance, err := h.svc.Balance(c.UserContext(), callerID(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"balance": balance})
}

// Deposit credits the caller's account.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return ledger.ErrInvalidAmount
	}
	balance, err := h.svc.Deposit(c.UserContext(), callerID(c), req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Deposit successful",
		"balance": balance,
	})
}

// Withdraw debits the caller's account.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return ledger.ErrInvalidAmount
	}
	balance, err := h.svc.Withdraw(c.UserContext(), callerID(c), req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Withdrawal successful",
		"balance": balance,
	})
}

// SendMoney transfers funds from the caller to the account owning toEmail.
func (h *Handler) SendMoney(c *fiber.Ctx) error {
	var req sendMoneyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.KindValidation, "valid toEmail and positive amount required")
	}
	if req.ToEmail == "" {
		return apperr.New(apperr.KindValidation, "valid toEmail and positive amount required")
	}
	balance, err := h.svc.SendMoney(c.UserContext(), callerID(c), req.ToEmail, req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Transfer successful",
		"balance": balance,
	})
}

// Transactions lists the caller's most recent ledger entries, newest first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	entries, err := h.svc.History(c.UserContext(), callerID(c), h.historyLimit)
	if err != nil {
		return err
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		resp := entryResponse{
			Type:      string(e.Kind),
			Amount:    e.Amount,
			CreatedAt: e.CreatedAt,
		}
		if e.Counterparty != "" {
			counterparty := e.Counterparty
			resp.OtherParty = &counterparty
		}
		out = append(out, resp)
	}
	return c.Status(http.StatusOK).JSON(out)
}

func callerID(c *fiber.Ctx) string {
	accountID, _ := c.Locals(middleware.AccountIDKey).(string)
	return accountID
}
