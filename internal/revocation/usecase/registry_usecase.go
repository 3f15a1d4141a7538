package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/moltid/authcore/internal/authz"
	"github.com/moltid/authcore/internal/cryptoutil"
	revocationDomain "github.com/moltid/authcore/internal/revocation/domain"
)

// registry implements Registry.
type registry struct {
	repo     RevocationRepository
	resolver AuthorityResolver
	verifier cryptoutil.Adapter
}

// NewRegistry creates a Registry with the provided dependencies. The registry
// is constructed once per process and passed explicitly into every validator
// that needs it.
func NewRegistry(repo RevocationRepository, resolver AuthorityResolver, verifier cryptoutil.Adapter) Registry {
	return &registry{repo: repo, resolver: resolver, verifier: verifier}
}

// IsRevoked reports whether the id has a revocation record.
func (r *registry) IsRevoked(ctx context.Context, id string) (bool, error) {
	return r.repo.Exists(ctx, id)
}

// Get retrieves the revocation record for a subject id.
func (r *registry) Get(ctx context.Context, subjectID string) (*revocationDomain.Record, error) {
	return r.repo.Get(ctx, subjectID)
}

// Record validates authority and appends the record.
func (r *registry) Record(ctx context.Context, record *revocationDomain.Record) error {
	if record.SubjectID == "" {
		return authz.ErrMalformedMessage
	}

	authority, err := r.resolver.ResolveAuthority(ctx, record.SubjectID, record.SubjectKind)
	if err != nil {
		return err
	}

	signed, err := SigningBytes(record)
	if err != nil {
		return err
	}

	if !r.authorized(record, authority, signed) {
		return authz.ErrUnauthorizedRevocation
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.Must(uuid.NewV7())
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	return r.repo.Create(ctx, record)
}

// authorized checks the single-issuer path first, then the recovery quorum.
// The two paths are deliberately separate: an issuer signature always
// suffices, and recovery signatures only count when they come from distinct
// keys in the authority's recovery set.
func (r *registry) authorized(
	record *revocationDomain.Record,
	authority *revocationDomain.Authority,
	signed []byte,
) bool {
	if record.AuthoritySignature != "" && authority.IssuerKey != "" {
		if r.verifier.Verify(authority.IssuerKey, signed, record.AuthoritySignature) {
			return true
		}
	}

	threshold := authority.RecoveryThreshold
	if threshold <= 0 || len(authority.RecoveryKeys) == 0 {
		return false
	}

	valid := 0
	used := make(map[string]bool, len(authority.RecoveryKeys))
	for _, sig := range record.RecoverySignatures {
		for _, key := range authority.RecoveryKeys {
			if used[key] {
				continue
			}
			if r.verifier.Verify(key, signed, sig) {
				used[key] = true
				valid++
				break
			}
		}
		if valid >= threshold {
			return true
		}
	}
	return false
}

// SigningBytes returns the canonical byte form of a record that authority
// signatures cover. Signature fields and storage metadata are excluded.
func SigningBytes(record *revocationDomain.Record) ([]byte, error) {
	return cryptoutil.CanonicalJSON(map[string]any{
		"subject_id":   record.SubjectID,
		"subject_kind": string(record.SubjectKind),
		"revoked_at":   record.RevokedAt.UTC().Format(time.RFC3339),
		"reason":       record.Reason,
	})
}
