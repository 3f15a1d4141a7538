package usecase

import (
	"context"
	"time"

	"github.com/moltid/authcore/internal/authz"
	"github.com/moltid/authcore/internal/capability"
	delegationDomain "github.com/moltid/authcore/internal/delegation/domain"
)

type registrarService struct {
	tokens    TokenRepository
	validator ChainValidator
}

// NewRegistrar creates a Registrar. Submitted tokens are fully chain-validated
// before storage, so the store never holds a token that could not authorize
// anything.
func NewRegistrar(tokens TokenRepository, validator ChainValidator) Registrar {
	return &registrarService{tokens: tokens, validator: validator}
}

// Submit chain-validates the token and stores it.
func (s *registrarService) Submit(ctx context.Context, token *delegationDomain.Token, now time.Time) ([]capability.Capability, error) {
	if token.ID == "" || token.Issuer == "" || token.Audience == "" || len(token.Capabilities) == 0 {
		return nil, authz.ErrMalformedMessage
	}
	if token.Signature == "" {
		return nil, authz.ErrSignatureInvalid
	}

	caps, err := s.validator.ValidateChain(ctx, token, now)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, err
	}
	return caps, nil
}

// Get retrieves a stored token by id.
func (s *registrarService) Get(ctx context.Context, id string) (*delegationDomain.Token, error) {
	return s.tokens.Get(ctx, id)
}

// Usage returns how many times the token has been used.
func (s *registrarService) Usage(ctx context.Context, id string) (int64, error) {
	return s.tokens.Usage(ctx, id)
}
