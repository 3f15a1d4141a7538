// Package usecase implements delegation token issuance and recursive chain
// validation.
package usecase

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/moltid/authcore/internal/capability"
	delegationDomain "github.com/moltid/authcore/internal/delegation/domain"
)

// TokenRepository defines persistence operations for delegation tokens and
// their usage counters.
type TokenRepository interface {
	// Create stores a new token. Returns ErrTokenAlreadyExists on a
	// duplicate id.
	Create(ctx context.Context, token *delegationDomain.Token) error

	// Get retrieves a token by id. Returns ErrTokenNotFound if not found.
	Get(ctx context.Context, id string) (*delegationDomain.Token, error)

	// Usage returns how many times the token has been used.
	Usage(ctx context.Context, id string) (int64, error)

	// RecordUse atomically increments the token's usage counter.
	RecordUse(ctx context.Context, id string) error

	// DeleteExpired removes tokens whose expiry is before the cutoff and
	// returns how many were removed. Used by the cleanup command; validation
	// never depends on it.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// ChainValidator verifies a delegation token and its ancestor chain:
// signatures, temporal validity, usage bounds, revocation status, scope
// narrowing at each link, and redelegation policy.
type ChainValidator interface {
	// ValidateChain returns the token's resolved capability set, which is
	// its own declared capabilities once every one of them is proven to
	// narrow some ancestor capability. Denials carry errors from the
	// internal/authz taxonomy.
	ValidateChain(ctx context.Context, token *delegationDomain.Token, now time.Time) ([]capability.Capability, error)

	// ValidateChainByID fetches the token first, then validates it.
	ValidateChainByID(ctx context.Context, id string, now time.Time) ([]capability.Capability, error)
}

// IssueTokenInput carries the parameters for issuing a delegation token.
type IssueTokenInput struct {
	Issuer          string
	IssuerKey       ed25519.PrivateKey
	Audience        string
	Capabilities    []capability.Capability
	ProofChain      []string
	NotBefore       time.Time
	Expires         time.Time
	MaxUses         int64
	AllowDelegation bool
}

// Registrar accepts externally signed delegation tokens into the store. The
// broadcast intake endpoint uses it so relays can submit tokens minted by
// other parties.
type Registrar interface {
	// Submit chain-validates the token and stores it. The resolved capability
	// set is returned so the caller can confirm what the token grants.
	Submit(ctx context.Context, token *delegationDomain.Token, now time.Time) ([]capability.Capability, error)

	// Get retrieves a stored token by id.
	Get(ctx context.Context, id string) (*delegationDomain.Token, error)

	// Usage returns how many times the token has been used.
	Usage(ctx context.Context, id string) (int64, error)
}

// Issuer creates and signs delegation tokens.
type Issuer interface {
	// Issue signs a new token and stores it. The issued token is validated
	// against its proof chain first, so an issuer cannot mint a token wider
	// than what it holds.
	Issue(ctx context.Context, input *IssueTokenInput) (*delegationDomain.Token, error)
}
