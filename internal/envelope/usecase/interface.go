// Package usecase implements envelope authorization: the single entry point
// the relay calls for every inbound message. It composes identity resolution,
// signature verification, replay protection, delegation chain validation,
// capability coverage, classification policy, and audit emission into one
// fail-fast decision.
package usecase

import (
	"context"
	"time"

	auditDomain "github.com/moltid/authcore/internal/audit/domain"
	"github.com/moltid/authcore/internal/capability"
	delegationDomain "github.com/moltid/authcore/internal/delegation/domain"
	"github.com/moltid/authcore/internal/pii"
)

// Transport carries the channel facts the relay observed for a message.
// Authorization never trusts the envelope for these: the relay saw the
// connection, the envelope only claims things.
type Transport struct {
	// Encrypted reports whether the message arrived over an encrypted
	// channel.
	Encrypted bool

	// Platform is the transport platform the message arrived on.
	Platform string

	// RateCount is the number of messages the sender has already sent in
	// the current accounting window.
	RateCount float64
}

// Decision is the verdict returned to the relay.
type Decision struct {
	Allowed bool `json:"allowed"`

	// ReasonCode is the stable denial code, empty on allow.
	ReasonCode string `json:"reason_code,omitempty"`

	// ResolvedCapability is the capability that covered the operation,
	// empty on deny.
	ResolvedCapability string `json:"resolved_capability,omitempty"`
}

// KeyResolver resolves sender signing keys and standing capabilities.
type KeyResolver interface {
	ResolveKey(ctx context.Context, did string) (string, error)
	RootCapabilities(ctx context.Context, did string) ([]capability.Capability, error)
}

// DelegationSource looks up delegation tokens and records their use.
type DelegationSource interface {
	Get(ctx context.Context, id string) (*delegationDomain.Token, error)
	RecordUse(ctx context.Context, id string) error
}

// ChainValidator validates a delegation token's full ancestor chain.
type ChainValidator interface {
	ValidateChain(ctx context.Context, token *delegationDomain.Token, now time.Time) ([]capability.Capability, error)
}

// ConsentVerifier validates a consent token reference against detected PII.
type ConsentVerifier interface {
	VerifyByID(ctx context.Context, id string, detected []pii.Type, now time.Time) error
}

// ReplayGuard validates timestamps and rejects duplicate message ids.
type ReplayGuard interface {
	Check(messageID string, timestamp, now time.Time) error
}

// AuditSink receives the signed record of every verdict.
type AuditSink interface {
	Emit(ctx context.Context, record *auditDomain.Record) error
}

// PIIDetector scans payload text for personal data.
type PIIDetector interface {
	Detect(text string) []pii.Type
}

// Authorizer decides whether a wire envelope may be delivered.
type Authorizer interface {
	// Authorize parses and checks the raw envelope. Policy denials come
	// back as a Decision with Allowed false and a reason code; the error
	// return is reserved for infrastructure failures, which must never be
	// presented as a policy verdict.
	Authorize(ctx context.Context, raw []byte, transport Transport, now time.Time) (*Decision, error)
}
