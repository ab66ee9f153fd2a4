package session

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	tokens map[string]string // token -> account id
}

// NewMemoryRepository builds an in-memory token store for tests and for
// running without a database.
func NewMemoryRepository() Repository {
	return &memoryRepository{tokens: make(map[string]string)}
}

func (r *memoryRepository) Store(_ context.Context, accountID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = accountID
	return nil
}

func (r *memoryRepository) Find(_ context.Context, token string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	accountID, ok := r.tokens[token]
	if !ok {
		return "", ErrTokenNotFound
	}
	return accountID, nil
}

func (r *memoryRepository) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}
