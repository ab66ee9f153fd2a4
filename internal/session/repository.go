package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTokenNotFound indicates the token has no persisted record, either
// because it was never issued here or because it was revoked.
var ErrTokenNotFound = errors.New("session token not found")

// Repository persists issued session tokens. The persisted record is the
// active revocation mechanism: a signed token without a record is rejected.
type Repository interface {
	Store(ctx context.Context, accountID, token string) error
	// Find returns the account id that owns the token.
	Find(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// PostgresRepository stores session tokens in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed session token repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Store inserts a token record.
func (r *PostgresRepository) Store(ctx context.Context, accountID, token string) error {
	acctID, err := uuid.Parse(accountID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO session_tokens (id, account_id, token, created_at)
        VALUES ($1, $2, $3, $4)`, uuid.New(), acctID, token, time.Now().UTC())
	return err
}

// Find returns the owning account id for a persisted token.
func (r *PostgresRepository) Find(ctx context.Context, token string) (string, error) {
	var accountID uuid.UUID
	if err := r.db.QueryRow(ctx, `SELECT account_id FROM session_tokens WHERE token = $1`, token).Scan(&accountID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrTokenNotFound
		}
		return "", err
	}
	return accountID.String(), nil
}

// Delete removes a token record. Deleting an unknown token is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM session_tokens WHERE token = $1`, token)
	return err
}
