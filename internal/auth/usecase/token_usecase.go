// Package usecase implements business logic orchestration for authentication operations.
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/moltid/authcore/internal/auth/domain"
	authService "github.com/moltid/authcore/internal/auth/service"
	"github.com/moltid/authcore/internal/config"
)

// tokenUseCase implements TokenUseCase for issuing and validating bearer tokens.
type tokenUseCase struct {
	config        *config.Config
	clientRepo    ClientRepository
	tokenRepo     TokenRepository
	secretService authService.SecretService
	tokenService  authService.TokenService
}

// Issue authenticates a client secret and generates a new bearer token.
//
// Security notes:
//   - Returns ErrInvalidCredentials for both non-existent clients and wrong
//     secrets to prevent enumeration
//   - Failed attempts count toward a lockout; a locked client is refused
//     before the secret is even compared
//   - The plain token is only returned once; expiration comes from
//     Config.AuthTokenExpiration
func (t *tokenUseCase) Issue(
	ctx context.Context,
	issueTokenInput *authDomain.IssueTokenInput,
) (*authDomain.IssueTokenOutput, error) {
	now := time.Now().UTC()

	client, err := t.clientRepo.Get(ctx, issueTokenInput.ClientID)
	if err != nil {
		if errors.Is(err, authDomain.ErrClientNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	if client.Locked(now) {
		return nil, authDomain.ErrClientLocked
	}

	if !client.IsActive {
		return nil, authDomain.ErrClientInactive
	}

	if !t.secretService.CompareSecret(issueTokenInput.ClientSecret, client.Secret) {
		if err := t.recordFailedAttempt(ctx, client, now); err != nil {
			return nil, err
		}
		return nil, authDomain.ErrInvalidCredentials
	}

	// Successful authentication clears any accumulated failures.
	if client.FailedAttempts > 0 || client.LockedUntil != nil {
		if err := t.clientRepo.UpdateLockState(ctx, client.ID, 0, nil); err != nil {
			return nil, err
		}
	}

	plainToken, tokenHash, err := t.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	token := &authDomain.Token{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: tokenHash,
		ClientID:  client.ID,
		ExpiresAt: now.Add(t.config.AuthTokenExpiration),
		RevokedAt: nil,
		CreatedAt: now,
	}

	if err := t.tokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	return &authDomain.IssueTokenOutput{
		PlainToken: plainToken,
		ExpiresAt:  token.ExpiresAt,
	}, nil
}

// recordFailedAttempt increments the failure counter and applies the lockout
// once the configured threshold is reached.
func (t *tokenUseCase) recordFailedAttempt(ctx context.Context, client *authDomain.Client, now time.Time) error {
	attempts := client.FailedAttempts + 1
	var lockedUntil *time.Time
	if attempts >= t.config.LockoutMaxAttempts {
		until := now.Add(t.config.LockoutDuration)
		lockedUntil = &until
	}
	return t.clientRepo.UpdateLockState(ctx, client.ID, attempts, lockedUntil)
}

// Authenticate validates a bearer token hash and returns the associated client.
//
// Returns ErrInvalidCredentials for a token that is unknown, expired, or
// revoked, and for a dangling client reference; ErrClientInactive when the
// client exists but has been deactivated. All time comparisons use UTC.
func (t *tokenUseCase) Authenticate(ctx context.Context, tokenHash string) (*authDomain.Client, error) {
	token, err := t.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, authDomain.ErrTokenNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	if token.ExpiresAt.Before(time.Now().UTC()) {
		return nil, authDomain.ErrInvalidCredentials
	}

	if token.RevokedAt != nil {
		return nil, authDomain.ErrInvalidCredentials
	}

	client, err := t.clientRepo.Get(ctx, token.ClientID)
	if err != nil {
		if errors.Is(err, authDomain.ErrClientNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !client.IsActive {
		return nil, authDomain.ErrClientInactive
	}

	return client, nil
}

// NewTokenUseCase creates a new TokenUseCase with the provided dependencies.
func NewTokenUseCase(
	config *config.Config,
	clientRepo ClientRepository,
	tokenRepo TokenRepository,
	secretService authService.SecretService,
	tokenService authService.TokenService,
) TokenUseCase {
	return &tokenUseCase{
		config:        config,
		clientRepo:    clientRepo,
		tokenRepo:     tokenRepo,
		secretService: secretService,
		tokenService:  tokenService,
	}
}
