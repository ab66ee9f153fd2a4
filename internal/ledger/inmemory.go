package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memoryAccount struct {
	balance decimal.Decimal
	entries []Entry
}

type inMemoryLedger struct {
	mu       sync.Mutex
	accounts map[string]*memoryAccount
}

// NewInMemory creates a concurrency-safe in-memory ledger used in tests and
// when running without a database. A single mutex serializes mutations, which
// gives the same no-lost-update guarantee the Postgres row locks provide.
func NewInMemory() Ledger {
	return &inMemoryLedger{accounts: make(map[string]*memoryAccount)}
}

func (l *inMemoryLedger) Open(_ context.Context, accountID string, opening decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.accounts[accountID]; !exists {
		l.accounts[accountID] = &memoryAccount{balance: opening}
	}
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, accountID string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[accountID]
	if !ok {
		return decimal.Zero, ErrAccountNotFound
	}
	return acct.balance, nil
}

func (l *inMemoryLedger) Deposit(_ context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[accountID]
	if !ok {
		return decimal.Zero, ErrAccountNotFound
	}
	acct.balance = acct.balance.Add(amount)
	acct.entries = append(acct.entries, newEntry(accountID, KindDeposit, amount, ""))
	return acct.balance, nil
}

func (l *inMemoryLedger) Withdraw(_ context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[accountID]
	if !ok {
		return decimal.Zero, ErrAccountNotFound
	}
	if acct.balance.LessThan(amount) {
		return decimal.Zero, ErrInsufficientFunds
	}
	acct.balance = acct.balance.Sub(amount)
	acct.entries = append(acct.entries, newEntry(accountID, KindWithdraw, amount, ""))
	return acct.balance, nil
}

func (l *inMemoryLedger) Transfer(_ context.Context, p Posting) (decimal.Decimal, error) {
	if !p.Amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	if p.SenderID == p.RecipientID {
		return decimal.Zero, ErrSameAccount
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	sender, ok := l.accounts[p.SenderID]
	if !ok {
		return decimal.Zero, ErrAccountNotFound
	}
	recipient, ok := l.accounts[p.RecipientID]
	if !ok {
		return decimal.Zero, ErrAccountNotFound
	}
	if sender.balance.LessThan(p.Amount) {
		return decimal.Zero, ErrInsufficientFunds
	}

	sender.balance = sender.balance.Sub(p.Amount)
	recipient.balance = recipient.balance.Add(p.Amount)
	sender.entries = append(sender.entries, newEntry(p.SenderID, KindSent, p.Amount, p.RecipientEmail))
	recipient.entries = append(recipient.entries, newEntry(p.RecipientID, KindReceived, p.Amount, p.SenderEmail))
	return sender.balance, nil
}

func (l *inMemoryLedger) History(_ context.Context, accountID string, limit int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}

	limit = clampLimit(limit)
	if limit > len(acct.entries) {
		limit = len(acct.entries)
	}

	// entries are appended oldest first; return newest first
	out := make([]Entry, 0, limit)
	for i := len(acct.entries) - 1; i >= len(acct.entries)-limit; i-- {
		out = append(out, acct.entries[i])
	}
	return out, nil
}

func newEntry(accountID string, kind Kind, amount decimal.Decimal, counterparty string) Entry {
	return Entry{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		Kind:         kind,
		Amount:       amount,
		Counterparty: counterparty,
		CreatedAt:    time.Now().UTC(),
	}
}
