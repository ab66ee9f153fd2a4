package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gobank/gobank/internal/account"
	"github.com/gobank/gobank/internal/bank"
)

// RegisterBankRoutes wires the ledger-backed endpoints. The router passed in
// must already enforce session authentication.
func RegisterBankRoutes(r fiber.Router, h *bank.Handler, accounts *account.Handler) {
	r.Get("/balance", h.Balance)
	r.Post("/deposit", h.Deposit)
	r.Post("/withdraw", h.Withdraw)
	r.Post("/send-money", h.SendMoney)
	r.Get("/transactions", h.Transactions)
	r.Get("/me", accounts.Me)
}
