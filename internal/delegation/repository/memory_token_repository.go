package repository

import (
	"context"
	"sync"
	"time"

	"github.com/moltid/authcore/internal/delegation/domain"
)

// MemoryTokenRepository is an in-process token store used by tests and by
// single-node deployments that keep delegation state local.
type MemoryTokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]*domain.Token
	uses   map[string]int64
}

// NewMemoryTokenRepository creates an empty in-memory store.
func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{
		tokens: make(map[string]*domain.Token),
		uses:   make(map[string]int64),
	}
}

// Create stores a new token.
func (r *MemoryTokenRepository) Create(_ context.Context, token *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token.ID]; ok {
		return domain.ErrTokenAlreadyExists
	}
	r.tokens[token.ID] = token
	return nil
}

// Get retrieves a token by id.
func (r *MemoryTokenRepository) Get(_ context.Context, id string) (*domain.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.tokens[id]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return token, nil
}

// Usage returns the token's usage counter.
func (r *MemoryTokenRepository) Usage(_ context.Context, id string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.tokens[id]; !ok {
		return 0, domain.ErrTokenNotFound
	}
	return r.uses[id], nil
}

// RecordUse atomically increments the token's usage counter.
func (r *MemoryTokenRepository) RecordUse(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[id]; !ok {
		return domain.ErrTokenNotFound
	}
	r.uses[id]++
	return nil
}

// DeleteExpired removes tokens whose expiry is before the cutoff.
func (r *MemoryTokenRepository) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms := cutoff.UnixMilli()
	var removed int64
	for id, token := range r.tokens {
		if token.Expires < ms {
			delete(r.tokens, id)
			delete(r.uses, id)
			removed++
		}
	}
	return removed, nil
}
