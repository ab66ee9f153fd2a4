package ledger

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresLedger executes balance mutations as single PostgreSQL transactions.
// Account rows are locked with SELECT ... FOR UPDATE so the balance check and
// the balance write see one consistent snapshot; two concurrent mutations on
// the same account serialize on the row lock.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Open sets the opening balance of a newly registered account.
func (l *PostgresLedger) Open(ctx context.Context, accountID string, opening decimal.Decimal) error {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return ErrAccountNotFound
	}
	cmd, err := l.db.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE id = $2`, opening, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Balance returns the stored balance for the account.
func (l *PostgresLedger) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return decimal.Zero, ErrAccountNotFound
	}
	var balance decimal.Decimal
	if err := l.db.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrAccountNotFound
		}
		return decimal.Zero, err
	}
	return balance, nil
}

// Deposit credits the account and appends a deposit entry.
func (l *PostgresLedger) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.mutate(ctx, accountID, amount, KindDeposit)
}

// Withdraw debits the account after checking funds against the locked row and
// appends a withdraw entry.
func (l *PostgresLedger) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.mutate(ctx, accountID, amount, KindWithdraw)
}

func (l *PostgresLedger) mutate(ctx context.Context, accountID string, amount decimal.Decimal, kind Kind) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	id, err := uuid.Parse(accountID)
	if err != nil {
		return decimal.Zero, ErrAccountNotFound
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	balance, err := lockBalance(ctx, tx, id)
	if err != nil {
		return decimal.Zero, err
	}

	var newBalance decimal.Decimal
	switch kind {
	case KindWithdraw:
		if balance.LessThan(amount) {
			return decimal.Zero, ErrInsufficientFunds
		}
		newBalance = balance.Sub(amount)
	default:
		newBalance = balance.Add(amount)
	}

	if err := writeBalance(ctx, tx, id, newBalance); err != nil {
		return decimal.Zero, err
	}
	if err := insertEntry(ctx, tx, id, kind, amount, ""); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// Transfer moves funds between two accounts as one atomic unit: both balance
// updates and both audit entries commit together or not at all. Rows are
// locked in ascending id order so two opposing transfers cannot deadlock.
func (l *PostgresLedger) Transfer(ctx context.Context, p Posting) (decimal.Decimal, error) {
	if !p.Amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	senderID, err := uuid.Parse(p.SenderID)
	if err != nil {
		return decimal.Zero, ErrAccountNotFound
	}
	recipientID, err := uuid.Parse(p.RecipientID)
	if err != nil {
		return decimal.Zero, ErrAccountNotFound
	}
	if senderID == recipientID {
		return decimal.Zero, ErrSameAccount
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	balances := make(map[uuid.UUID]decimal.Decimal, 2)
	for _, id := range lockOrder(senderID, recipientID) {
		bal, err := lockBalance(ctx, tx, id)
		if err != nil {
			return decimal.Zero, err
		}
		balances[id] = bal
	}

	if balances[senderID].LessThan(p.Amount) {
		return decimal.Zero, ErrInsufficientFunds
	}
	newSender := balances[senderID].Sub(p.Amount)
	newRecipient := balances[recipientID].Add(p.Amount)

	if err := writeBalance(ctx, tx, senderID, newSender); err != nil {
		return decimal.Zero, err
	}
	if err := writeBalance(ctx, tx, recipientID, newRecipient); err != nil {
		return decimal.Zero, err
	}
	if err := insertEntry(ctx, tx, senderID, KindSent, p.Amount, p.RecipientEmail); err != nil {
		return decimal.Zero, err
	}
	if err := insertEntry(ctx, tx, recipientID, KindReceived, p.Amount, p.SenderEmail); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}
	return newSender, nil
}

// History returns the account's most recent entries, newest first.
func (l *PostgresLedger) History(ctx context.Context, accountID string, limit int) ([]Entry, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	rows, err := l.db.Query(ctx, `SELECT id, kind, amount, COALESCE(counterparty, ''), created_at
        FROM ledger_entries WHERE account_id = $1
        ORDER BY created_at DESC, id DESC LIMIT $2`, id, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entryID   uuid.UUID
			kind      string
			createdAt time.Time
			e         Entry
		)
		if err := rows.Scan(&entryID, &kind, &e.Amount, &e.Counterparty, &createdAt); err != nil {
			return nil, err
		}
		e.ID = entryID.String()
		e.AccountID = accountID
		e.Kind = Kind(kind)
		e.CreatedAt = createdAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func lockOrder(a, b uuid.UUID) []uuid.UUID {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return []uuid.UUID{a, b}
	}
	return []uuid.UUID{b, a}
}

func lockBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrAccountNotFound
		}
		return decimal.Zero, err
	}
	return balance, nil
}

func writeBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	_, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE id = $2`, balance, id)
	return err
}

func insertEntry(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, kind Kind, amount decimal.Decimal, counterparty string) error {
	_, err := tx.Exec(ctx, `INSERT INTO ledger_entries (id, account_id, kind, amount, counterparty, created_at)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		uuid.New(), accountID, string(kind), amount, counterparty, time.Now().UTC())
	return err
}
