package usecase

import (
	"context"
	"time"

	consentDomain "github.com/moltid/authcore/internal/consent/domain"
)

type registrarService struct {
	repo     ConsentRepository
	verifier Verifier
}

// NewRegistrar creates a Registrar. Registration reuses the verifier with an
// empty detected set, so only signature, expiry, and revocation are checked.
func NewRegistrar(repo ConsentRepository, verifier Verifier) Registrar {
	return &registrarService{repo: repo, verifier: verifier}
}

// Register verifies the token and stores it.
func (s *registrarService) Register(ctx context.Context, token *consentDomain.Token, now time.Time) error {
	if err := s.verifier.Verify(ctx, token, nil, now); err != nil {
		return err
	}
	return s.repo.Create(ctx, token)
}

// Get retrieves a stored consent token by id.
func (s *registrarService) Get(ctx context.Context, id string) (*consentDomain.Token, error) {
	return s.repo.Get(ctx, id)
}
