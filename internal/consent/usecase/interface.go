// Package usecase implements consent verification: a consent token must be
// present, signed by its grantor, unexpired, unrevoked, and wide enough to
// cover every PII type detected in a payload.
package usecase

import (
	"context"
	"time"

	consentDomain "github.com/moltid/authcore/internal/consent/domain"
	"github.com/moltid/authcore/internal/pii"
)

// ConsentRepository defines persistence operations for consent tokens.
type ConsentRepository interface {
	// Create stores a new consent token.
	Create(ctx context.Context, token *consentDomain.Token) error

	// Get retrieves a consent token by id. Returns ErrTokenNotFound if not
	// found.
	Get(ctx context.Context, id string) (*consentDomain.Token, error)
}

// Registrar accepts consent tokens into the store so later envelopes can
// reference them by id.
type Registrar interface {
	// Register verifies the token's signature, expiry, and revocation status
	// (coverage is not checked: no payload exists yet), then stores it.
	Register(ctx context.Context, token *consentDomain.Token, now time.Time) error

	// Get retrieves a stored consent token by id.
	Get(ctx context.Context, id string) (*consentDomain.Token, error)
}

// Verifier validates consent tokens against detected PII types.
type Verifier interface {
	// Verify checks signature, expiry, revocation, and that every detected
	// PII type is within the token's consented set. Denials carry errors
	// from the internal/authz taxonomy.
	Verify(ctx context.Context, token *consentDomain.Token, detected []pii.Type, now time.Time) error

	// VerifyByID fetches the token first, then verifies it. A missing token
	// denies with ConsentInvalid.
	VerifyByID(ctx context.Context, id string, detected []pii.Type, now time.Time) error
}
