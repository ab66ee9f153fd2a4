// Package ledger implements the transaction engine moving money between
// accounts. Every mutation updates the account balance and appends an audit
// entry inside one atomic unit; a partial write is never observable.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gobank/gobank/internal/apperr"
)

var (
	// ErrInvalidAmount rejects zero, negative, and unparseable amounts.
	ErrInvalidAmount = apperr.New(apperr.KindValidation, "positive amount required")

	// ErrInsufficientFunds occurs when an account lacks the balance to
	// cover a withdrawal or transfer.
	ErrInsufficientFunds = apperr.New(apperr.KindBusinessRule, "insufficient balance")

	// ErrAccountNotFound indicates the ledger has no account with that id.
	ErrAccountNotFound = apperr.New(apperr.KindNotFound, "account not found")

	// ErrSameAccount rejects postings where sender and recipient are the
	// same row. Applying both balance writes to one row would create money.
	ErrSameAccount = apperr.New(apperr.KindBusinessRule, "cannot transfer to the same account")
)

// Kind identifies the type of a ledger entry.
type Kind string

const (
	KindDeposit  Kind = "deposit"
	KindWithdraw Kind = "withdraw"
	KindSent     Kind = "sent"
	KindReceived Kind = "received"
)

// MaxHistoryLimit caps how many entries History returns per call.
const MaxHistoryLimit = 50

// Entry is an immutable audit record for one balance mutation.
type Entry struct {
	ID        string
	AccountID string
	Kind      Kind
	Amount    decimal.Decimal
	// Counterparty holds the email of the other side of a transfer.
	// Empty for deposits and withdrawals.
	Counterparty string
	CreatedAt    time.Time
}

// Posting describes a transfer between two resolved accounts. The emails are
// recorded as counterparties on the two audit entries.
type Posting struct {
	SenderID       string
	RecipientID    string
	SenderEmail    string
	RecipientEmail string
	Amount         decimal.Decimal
}

// Ledger is the contract implemented by ledger backends. Mutations return the
// new balance of the acting (sender) account.
type Ledger interface {
	// Open initializes the balance of a freshly created account.
	Open(ctx context.Context, accountID string, opening decimal.Decimal) error
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)
	Transfer(ctx context.Context, p Posting) (decimal.Decimal, error)
	History(ctx context.Context, accountID string, limit int) ([]Entry, error)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
