package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gobank/gobank/internal/apperr"
)

// CookieName is the HTTP cookie carrying the session token.
const CookieName = "bank_token"

// ErrInvalidSession covers tampered, expired, and revoked tokens alike. Every
// failure mode fails closed with the same error.
var ErrInvalidSession = apperr.New(apperr.KindAuth, "invalid or expired session")

// Service issues and validates signed session tokens. A token is valid only
// while both checks pass: the local signature/expiry check and the persisted
// record lookup. Revocation removes the record; the signature itself stays
// valid until expiry.
type Service struct {
	secret []byte
	ttl    time.Duration
	repo   Repository
}

// NewService creates a session service signing with the given secret.
func NewService(secret string, ttl time.Duration, repo Repository) *Service {
	return &Service{secret: []byte(secret), ttl: ttl, repo: repo}
}

// TTL returns the configured session lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token bound to the account and persists its record so it can
// later be revoked.
func (s *Service) Issue(ctx context.Context, accountID string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		AccountID: accountID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
		Nonce:     uuid.NewString(),
	}
	token, err := SignHS256(claims, s.secret)
	if err != nil {
		return "", err
	}
	if err := s.repo.Store(ctx, accountID, token); err != nil {
		return "", err
	}
	return token, nil
}

// Verify validates a token in two independent steps: the cheap local
// signature and expiry check first, then the store lookup confirming the
// session was not revoked and still belongs to the embedded account.
func (s *Service) Verify(ctx context.Context, token string) (string, error) {
	claims, err := ParseAndVerifyHS256(token, s.secret)
	if err != nil {
		return "", ErrInvalidSession
	}
	if time.Now().UTC().Unix() >= claims.ExpiresAt {
		return "", ErrInvalidSession
	}
	ownerID, err := s.repo.Find(ctx, token)
	if err != nil || ownerID != claims.AccountID {
		return "", ErrInvalidSession
	}
	return claims.AccountID, nil
}

// Revoke removes the persisted token record. Revoking an unknown token is a
// no-op.
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.repo.Delete(ctx, token)
}
