// Package usecase implements the revocation registry: an append-only,
// authority-checked store answering "is this id revoked" for every
// delegation, key, and consent check in the system.
package usecase

import (
	"context"

	revocationDomain "github.com/moltid/authcore/internal/revocation/domain"
)

// RevocationRepository defines persistence operations for revocation records.
type RevocationRepository interface {
	// Create stores a new record. Recording the same subject twice is not an
	// error: revocations are idempotent.
	Create(ctx context.Context, record *revocationDomain.Record) error

	// Get retrieves the record for a subject id. Returns ErrRecordNotFound
	// if the subject has not been revoked.
	Get(ctx context.Context, subjectID string) (*revocationDomain.Record, error)

	// Exists reports whether a record exists for the subject id.
	Exists(ctx context.Context, subjectID string) (bool, error)
}

// AuthorityResolver resolves who is allowed to revoke a given subject.
// Delegation tokens resolve to their issuer's key, signing keys to the owning
// agent's current key plus its recovery set.
type AuthorityResolver interface {
	ResolveAuthority(ctx context.Context, subjectID string, kind revocationDomain.SubjectKind) (*revocationDomain.Authority, error)
}

// Registry defines the revocation registry operations.
type Registry interface {
	// IsRevoked reports whether the id has a revocation record. Pure lookup,
	// safe for concurrent use on every validation path.
	IsRevoked(ctx context.Context, id string) (bool, error)

	// Get retrieves the revocation record for a subject id. Returns
	// ErrRecordNotFound when the subject has not been revoked.
	Get(ctx context.Context, subjectID string) (*revocationDomain.Record, error)

	// Record validates the record's authority signature (or recovery quorum)
	// and appends it. Returns ErrUnauthorizedRevocation when neither the
	// subject's issuer nor a recovery quorum signed it.
	Record(ctx context.Context, record *revocationDomain.Record) error
}
