package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/gobank/gobank/internal/apperr"
	"github.com/gobank/gobank/internal/ledger"
)

var (
	// ErrMissingFields rejects registration requests with empty fields.
	ErrMissingFields = apperr.New(apperr.KindValidation, "email, password and full name required")

	// ErrInvalidCredentials is returned for both unknown emails and wrong
	// passwords so callers cannot enumerate accounts.
	ErrInvalidCredentials = apperr.New(apperr.KindAuth, "invalid email or password")
)

// Service manages account lifecycle and credential checks.
type Service struct {
	repo        Repository
	ledger      ledger.Ledger
	seedBalance decimal.Decimal
}

// NewService creates an account service. Every new account is opened in the
// ledger with the given seed balance.
func NewService(repo Repository, l ledger.Ledger, seedBalance decimal.Decimal) *Service {
	return &Service{repo: repo, ledger: l, seedBalance: seedBalance}
}

// Register creates an account with a bcrypt password hash and opens its
// ledger balance at the seed value.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (Account, error) {
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)
	if email == "" || password == "" || fullName == "" {
		return Account{}, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	acct := Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, acct); err != nil {
		return Account{}, err
	}
	if err := s.ledger.Open(ctx, acct.ID, s.seedBalance); err != nil {
		// the row must not outlive a failed opening, or the email stays
		// taken by an account that never received its seed balance
		if delErr := s.repo.Delete(ctx, acct.ID); delErr != nil {
			return Account{}, errors.Join(err, delErr)
		}
		return Account{}, err
	}

	return acct, nil
}

// Authenticate verifies credentials and returns the matching account. The
// failure is identical whether the email is unknown or the password wrong.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Account, error) {
	acct, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return acct, nil
}
