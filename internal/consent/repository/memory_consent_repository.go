package repository

import (
	"context"
	"sync"

	"github.com/moltid/authcore/internal/consent/domain"
)

// MemoryConsentRepository is an in-process consent store used by tests and
// embedded consent tokens that arrive inline with a message.
type MemoryConsentRepository struct {
	mu     sync.RWMutex
	tokens map[string]*domain.Token
}

// NewMemoryConsentRepository creates an empty in-memory store.
func NewMemoryConsentRepository() *MemoryConsentRepository {
	return &MemoryConsentRepository{
		tokens: make(map[string]*domain.Token),
	}
}

// Create stores a new consent token.
func (r *MemoryConsentRepository) Create(_ context.Context, token *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token.ID]; ok {
		return domain.ErrTokenAlreadyExists
	}
	r.tokens[token.ID] = token
	return nil
}

// Get retrieves a consent token by id.
func (r *MemoryConsentRepository) Get(_ context.Context, id string) (*domain.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.tokens[id]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return token, nil
}
