// Package domain defines the revocation record model. Revocations are
// append-only: once a record exists for a subject it is never removed, and a
// revoked delegation invalidates every descendant in its chain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubjectKind identifies what a revocation record invalidates.
type SubjectKind string

const (
	// SubjectKindDelegation revokes a delegation token by its token id.
	SubjectKindDelegation SubjectKind = "delegation"

	// SubjectKindKey revokes a signing key by its wire-form public key.
	SubjectKindKey SubjectKind = "key"

	// SubjectKindConsent revokes a consent token by its token id.
	SubjectKindConsent SubjectKind = "consent"
)

// Record is a permanent, signed statement invalidating a key or token.
type Record struct {
	ID          uuid.UUID   `json:"id"`
	SubjectID   string      `json:"subject_id"`
	SubjectKind SubjectKind `json:"subject_kind"`
	RevokedAt   time.Time   `json:"revoked_at"`
	Reason      string      `json:"reason"`

	// AuthoritySignature is the subject issuer's signature over the record's
	// canonical bytes. Empty when the record is authorized by recovery quorum
	// instead.
	AuthoritySignature string `json:"authority_signature,omitempty"`

	// RecoverySignatures carries one signature per participating recovery
	// key, in the same order as the authority's recovery key list.
	RecoverySignatures []string `json:"recovery_signatures,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Authority describes who may revoke a given subject: the issuer key that
// signed it, plus the recovery keys that can jointly override the issuer.
type Authority struct {
	IssuerKey         string
	RecoveryKeys      []string
	RecoveryThreshold int
}
