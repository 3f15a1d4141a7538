// Package domain defines identity domain models: agents, their signing keys,
// and the key lifecycle (current, superseded, revoked).
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/moltid/authcore/internal/capability"
)

// KeyStatus tracks the lifecycle of a signing key.
type KeyStatus string

const (
	// KeyStatusCurrent marks the agent's active signing key.
	KeyStatusCurrent KeyStatus = "current"

	// KeyStatusSuperseded marks a key replaced by rotation. Superseded keys
	// no longer authenticate new messages but remain on record so historic
	// signatures stay attributable.
	KeyStatusSuperseded KeyStatus = "superseded"

	// KeyStatusRevoked marks a key invalidated by an explicit revocation
	// record. Revocation is permanent.
	KeyStatusRevoked KeyStatus = "revoked"
)

// Agent is a registered identity. The DID is derived from the current public
// key (did:molt:key) or resolved through an external registry; either way it
// is immutable once assigned.
type Agent struct {
	ID                uuid.UUID
	DID               string
	Name              string
	Org               string
	PublicKey         string
	IsActive          bool
	RootCapabilities  []capability.Capability
	RecoveryKeys      []string
	RecoveryThreshold int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AgentKey is one signing key in an agent's history.
type AgentKey struct {
	ID           uuid.UUID
	AgentID      uuid.UUID
	PublicKey    string
	Status       KeyStatus
	CreatedAt    time.Time
	SupersededAt *time.Time
}

// RegisterAgentInput carries the parameters for registering a new agent.
type RegisterAgentInput struct {
	Name              string
	Org               string
	PublicKey         string
	RootCapabilities  []capability.Capability
	RecoveryKeys      []string
	RecoveryThreshold int
}
