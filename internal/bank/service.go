// Package bank composes the ledger engine with account lookup into the
// operations the API exposes: balance, deposit, withdraw, send-money,
// transaction history.
package bank

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gobank/gobank/internal/account"
	"github.com/gobank/gobank/internal/apperr"
	"github.com/gobank/gobank/internal/events"
	"github.com/gobank/gobank/internal/ledger"
)

var (
	// ErrRecipientNotFound occurs when a transfer names an unknown email.
	ErrRecipientNotFound = apperr.New(apperr.KindNotFound, "recipient not found")

	// ErrSelfTransfer rejects transfers where the recipient resolves to
	// the sender's own account.
	ErrSelfTransfer = apperr.New(apperr.KindBusinessRule, "cannot send money to yourself")
)

// Service executes authenticated banking operations.
type Service struct {
	accounts account.Repository
	ledger   ledger.Ledger
	notifier events.Notifier
}

// NewService builds a bank service.
func NewService(accounts account.Repository, l ledger.Ledger, notifier events.Notifier) *Service {
	return &Service{accounts: accounts, ledger: l, notifier: notifier}
}

// Balance returns the account's current balance.
func (s *Service) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return s.ledger.Balance(ctx, accountID)
}

// Deposit credits the account and returns the new balance.
func (s *Service) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	newBalance, err := s.ledger.Deposit(ctx, accountID, amount)
	if err != nil {
		return decimal.Zero, err
	}
	s.notify(ctx, string(ledger.KindDeposit), accountID, "", amount)
	return newBalance, nil
}

// Withdraw debits the account and returns the new balance.
func (s *Service) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	newBalance, err := s.ledger.Withdraw(ctx, accountID, amount)
	if err != nil {
		return decimal.Zero, err
	}
	s.notify(ctx, string(ledger.KindWithdraw), accountID, "", amount)
	return newBalance, nil
}

// SendMoney resolves the recipient by email and transfers the amount from
// the sender. Returns the sender's new balance.
func (s *Service) SendMoney(ctx context.Context, senderID, toEmail string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ledger.ErrInvalidAmount
	}

	sender, err := s.accounts.FindByID(ctx, senderID)
	if err != nil {
		return decimal.Zero, err
	}
	recipient, err := s.accounts.FindByEmail(ctx, toEmail)
	if err != nil {
		return decimal.Zero, ErrRecipientNotFound
	}
	if recipient.ID == sender.ID {
		return decimal.Zero, ErrSelfTransfer
	}

	newBalance, err := s.ledger.Transfer(ctx, ledger.Posting{
		SenderID:       sender.ID,
		RecipientID:    recipient.ID,
		SenderEmail:    sender.Email,
		RecipientEmail: recipient.Email,
		Amount:         amount,
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.notify(ctx, string(ledger.KindSent), sender.ID, recipient.Email, amount)
	s.notify(ctx, string(ledger.KindReceived), recipient.ID, sender.Email, amount)
	return newBalance, nil
}

// History returns the account's most recent ledger entries, newest first.
func (s *Service) History(ctx context.Context, accountID string, limit int) ([]ledger.Entry, error) {
	return s.ledger.History(ctx, accountID, limit)
}

func (s *Service) notify(ctx context.Context, kind, accountID, counterparty string, amount decimal.Decimal) {
	if s.notifier == nil {
		return
	}
	// best effort; the mutation is already committed
	_ = s.notifier.Send(ctx, events.Event{
		Kind:         kind,
		AccountID:    accountID,
		Counterparty: counterparty,
		Amount:       amount,
		OccurredAt:   time.Now().UTC(),
	})
}
