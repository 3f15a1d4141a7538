// Package usecase defines business logic interfaces for identity management.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/moltid/authcore/internal/capability"
	identityDomain "github.com/moltid/authcore/internal/identity/domain"
)

// AgentRepository defines persistence operations for agents and their keys.
// Implementations must support transaction-aware operations via context
// propagation.
type AgentRepository interface {
	// Create stores a new agent together with its current key record.
	Create(ctx context.Context, agent *identityDomain.Agent) error

	// Update modifies an existing agent.
	Update(ctx context.Context, agent *identityDomain.Agent) error

	// Get retrieves an agent by ID. Returns ErrAgentNotFound if not found.
	Get(ctx context.Context, agentID uuid.UUID) (*identityDomain.Agent, error)

	// GetByDID retrieves an agent by its DID. Returns ErrAgentNotFound if
	// not found.
	GetByDID(ctx context.Context, did string) (*identityDomain.Agent, error)

	// CreateKey stores a key history record.
	CreateKey(ctx context.Context, key *identityDomain.AgentKey) error

	// GetKey retrieves a key record by its wire-form public key. Returns
	// ErrKeyNotFound if not found.
	GetKey(ctx context.Context, publicKey string) (*identityDomain.AgentKey, error)

	// SupersedeKey marks the agent's current key superseded.
	SupersedeKey(ctx context.Context, agentID uuid.UUID) error
}

// AgentUseCase defines business logic operations for agent lifecycle
// management: registration, key rotation, and lookup.
type AgentUseCase interface {
	// Register stores a new agent. The DID is derived from the public key
	// (did:molt:key form).
	Register(ctx context.Context, input *identityDomain.RegisterAgentInput) (*identityDomain.Agent, error)

	// RotateKey replaces the agent's signing key. The previous key is marked
	// superseded, never deleted: historic signatures must stay attributable.
	RotateKey(ctx context.Context, agentID uuid.UUID, newPublicKey string) (*identityDomain.Agent, error)

	// Get retrieves an agent by ID.
	Get(ctx context.Context, agentID uuid.UUID) (*identityDomain.Agent, error)

	// GetByDID retrieves an agent by DID.
	GetByDID(ctx context.Context, did string) (*identityDomain.Agent, error)

	// Deactivate soft-deletes an agent, preventing further authorization
	// while preserving the record for audit purposes.
	Deactivate(ctx context.Context, agentID uuid.UUID) error
}

// KeyResolver resolves the signing key material for a DID. The envelope and
// delegation validators depend on this narrow view instead of the full
// repository.
type KeyResolver interface {
	// ResolveKey returns the current wire-form public key for a DID.
	//
	// For self-certifying did:molt:key identifiers the key is decoded from
	// the DID itself after confirming it has not been rotated away or
	// revoked. Registry identifiers resolve through the agent store.
	ResolveKey(ctx context.Context, did string) (string, error)

	// RootCapabilities returns the capability set an agent holds when acting
	// as itself (no delegation asserted). Unknown self-certifying agents
	// hold no root capabilities.
	RootCapabilities(ctx context.Context, did string) ([]capability.Capability, error)
}
