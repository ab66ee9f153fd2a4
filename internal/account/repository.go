package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gobank/gobank/internal/apperr"
)

var (
	// ErrDuplicateEmail occurs when registering an email that already exists.
	ErrDuplicateEmail = apperr.New(apperr.KindConflict, "email already registered")

	// ErrNotFound indicates no account matches the given id or email.
	ErrNotFound = apperr.New(apperr.KindNotFound, "account not found")
)

// uniqueViolation is the Postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

// Repository persists accounts.
type Repository interface {
	Create(ctx context.Context, acct Account) error
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
	// Delete removes an account row. Used to roll back a registration
	// whose ledger opening failed; deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account with a zero balance; the ledger sets the
// opening balance afterwards.
func (r *PostgresRepository) Create(ctx context.Context, acct Account) error {
	id, err := uuid.Parse(acct.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, email, password_hash, full_name, balance, created_at)
        VALUES ($1, $2, $3, $4, 0, $5)`, id, acct.Email, acct.PasswordHash, acct.FullName, acct.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}

// FindByEmail fetches an account by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT id, email, password_hash, full_name, created_at
        FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// FindByID fetches an account by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Account, error) {
	acctID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, email, password_hash, full_name, created_at
        FROM accounts WHERE id = $1`, acctID)
	return scanAccount(row)
}

// Delete removes an account row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	acctID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	_, err = r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, acctID)
	return err
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		acct      Account
	)
	if err := row.Scan(&id, &acct.Email, &acct.PasswordHash, &acct.FullName, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	acct.ID = id.String()
	acct.CreatedAt = createdAt.UTC()
	return acct, nil
}
