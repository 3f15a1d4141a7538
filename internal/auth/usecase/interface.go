// Package usecase defines business logic interfaces for API client
// authentication.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/moltid/authcore/internal/auth/domain"
)

// ClientRepository defines persistence operations for API clients.
// Implementations must support transaction-aware operations via context
// propagation.
type ClientRepository interface {
	// Create stores a new client in the repository.
	Create(ctx context.Context, client *authDomain.Client) error

	// Update modifies an existing client in the repository.
	Update(ctx context.Context, client *authDomain.Client) error

	// Get retrieves a client by ID. Returns ErrClientNotFound if not found.
	Get(ctx context.Context, clientID uuid.UUID) (*authDomain.Client, error)

	// List retrieves clients ordered by ID descending with pagination.
	List(ctx context.Context, offset, limit int) ([]*authDomain.Client, error)

	// UpdateLockState sets the failed-attempt counter and lockout expiry.
	UpdateLockState(ctx context.Context, clientID uuid.UUID, failedAttempts int, lockedUntil *time.Time) error
}

// TokenRepository defines persistence operations for bearer tokens.
type TokenRepository interface {
	// Create stores a new token in the repository.
	Create(ctx context.Context, token *authDomain.Token) error

	// Get retrieves a token by ID. Returns ErrTokenNotFound if not found.
	Get(ctx context.Context, tokenID uuid.UUID) (*authDomain.Token, error)

	// GetByTokenHash retrieves a token by its SHA-256 hash. Returns
	// ErrTokenNotFound if not found.
	GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.Token, error)

	// Revoke marks a token revoked. Returns ErrTokenNotFound if not found.
	Revoke(ctx context.Context, tokenID uuid.UUID) error

	// DeleteExpired removes tokens that expired before the cutoff and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// ClientUseCase defines business logic operations for managing API clients.
type ClientUseCase interface {
	// Create generates a new client with a random secret. The plain secret
	// is returned exactly once; only its Argon2id hash is stored.
	Create(
		ctx context.Context,
		createClientInput *authDomain.CreateClientInput,
	) (*authDomain.CreateClientOutput, error)

	// Update modifies a client's name, active status, and policies. The
	// client ID and secret remain unchanged.
	Update(ctx context.Context, clientID uuid.UUID, updateClientInput *authDomain.UpdateClientInput) error

	// Get retrieves a client by ID.
	Get(ctx context.Context, clientID uuid.UUID) (*authDomain.Client, error)

	// List retrieves clients with pagination.
	List(ctx context.Context, offset, limit int) ([]*authDomain.Client, error)

	// Delete performs a soft delete by setting IsActive to false, preventing
	// authentication while preserving the record.
	Delete(ctx context.Context, clientID uuid.UUID) error

	// Unlock clears a client's lockout state.
	Unlock(ctx context.Context, clientID uuid.UUID) error
}

// TokenUseCase defines token issuance and bearer authentication.
type TokenUseCase interface {
	// Issue authenticates a client secret and returns a new bearer token.
	Issue(
		ctx context.Context,
		issueTokenInput *authDomain.IssueTokenInput,
	) (*authDomain.IssueTokenOutput, error)

	// Authenticate resolves a token hash to its active client.
	Authenticate(ctx context.Context, tokenHash string) (*authDomain.Client, error)
}
