// Package domain defines the audit record model: one signed entry per
// authorization verdict, the only externally observable write of a
// validation.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/moltid/authcore/internal/errors"
)

// Verdict is the outcome of an authorization decision.
type Verdict string

const (
	VerdictAllow Verdict = "allow"
	VerdictDeny  Verdict = "deny"
)

// Record captures a single authorization decision.
type Record struct {
	ID        uuid.UUID `json:"id"`
	MessageID string    `json:"message_id"`
	Sender    string    `json:"sender"`
	Operation string    `json:"operation"`
	Verdict   Verdict   `json:"verdict"`

	// ReasonCode is the stable denial code, empty on allow.
	ReasonCode string `json:"reason_code,omitempty"`

	// ResolvedCapability is the capability that matched, empty on deny.
	ResolvedCapability string `json:"resolved_capability,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// Signature is the HMAC over the record's canonical bytes.
	Signature []byte `json:"signature,omitempty"`
}

// Audit errors.
var (
	// ErrRecordTampered indicates a stored record's signature no longer
	// matches its content.
	ErrRecordTampered = errors.Wrap(errors.ErrForbidden, "audit record tampered")

	// ErrRecordNotFound indicates no audit record exists for the given id.
	ErrRecordNotFound = errors.Wrap(errors.ErrNotFound, "audit record not found")
)
