package usecase

import (
	"time"

	"context"

	"github.com/google/uuid"

	"github.com/moltid/authcore/internal/capability"
	"github.com/moltid/authcore/internal/cryptoutil"
	"github.com/moltid/authcore/internal/database"
	apperrors "github.com/moltid/authcore/internal/errors"
	identityDomain "github.com/moltid/authcore/internal/identity/domain"
)

// agentUseCase implements AgentUseCase.
type agentUseCase struct {
	txManager database.TxManager
	agentRepo AgentRepository
}

// NewAgentUseCase creates a new AgentUseCase with the provided dependencies.
func NewAgentUseCase(txManager database.TxManager, agentRepo AgentRepository) AgentUseCase {
	return &agentUseCase{txManager: txManager, agentRepo: agentRepo}
}

// Register stores a new agent and its current key record in one transaction.
func (a *agentUseCase) Register(
	ctx context.Context,
	input *identityDomain.RegisterAgentInput,
) (*identityDomain.Agent, error) {
	// Validate the key decodes before persisting anything.
	pub, err := cryptoutil.DecodePublicKey(input.PublicKey)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	agent := &identityDomain.Agent{
		ID:                uuid.Must(uuid.NewV7()),
		DID:               cryptoutil.DeriveDID(pub),
		Name:              input.Name,
		Org:               input.Org,
		PublicKey:         input.PublicKey,
		IsActive:          true,
		RootCapabilities:  input.RootCapabilities,
		RecoveryKeys:      input.RecoveryKeys,
		RecoveryThreshold: input.RecoveryThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = a.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := a.agentRepo.Create(txCtx, agent); err != nil {
			return err
		}
		key := &identityDomain.AgentKey{
			ID:        uuid.Must(uuid.NewV7()),
			AgentID:   agent.ID,
			PublicKey: agent.PublicKey,
			Status:    identityDomain.KeyStatusCurrent,
			CreatedAt: now,
		}
		return a.agentRepo.CreateKey(txCtx, key)
	})
	if err != nil {
		return nil, err
	}

	return agent, nil
}

// RotateKey replaces the agent's signing key. The old key is marked
// superseded and a fresh key record is created; the agent's DID is preserved
// for registry identities (the key embedded in a did:molt:key identifier is
// historical after rotation and resolution goes through the key table).
func (a *agentUseCase) RotateKey(
	ctx context.Context,
	agentID uuid.UUID,
	newPublicKey string,
) (*identityDomain.Agent, error) {
	if _, err := cryptoutil.DecodePublicKey(newPublicKey); err != nil {
		return nil, err
	}

	agent, err := a.agentRepo.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = a.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := a.agentRepo.SupersedeKey(txCtx, agent.ID); err != nil {
			return err
		}

		key := &identityDomain.AgentKey{
			ID:        uuid.Must(uuid.NewV7()),
			AgentID:   agent.ID,
			PublicKey: newPublicKey,
			Status:    identityDomain.KeyStatusCurrent,
			CreatedAt: now,
		}
		if err := a.agentRepo.CreateKey(txCtx, key); err != nil {
			return err
		}

		agent.PublicKey = newPublicKey
		agent.UpdatedAt = now
		return a.agentRepo.Update(txCtx, agent)
	})
	if err != nil {
		return nil, err
	}

	return agent, nil
}

// Get retrieves an agent by ID.
func (a *agentUseCase) Get(ctx context.Context, agentID uuid.UUID) (*identityDomain.Agent, error) {
	return a.agentRepo.Get(ctx, agentID)
}

// GetByDID retrieves an agent by DID.
func (a *agentUseCase) GetByDID(ctx context.Context, did string) (*identityDomain.Agent, error) {
	return a.agentRepo.GetByDID(ctx, did)
}

// Deactivate soft-deletes an agent.
func (a *agentUseCase) Deactivate(ctx context.Context, agentID uuid.UUID) error {
	agent, err := a.agentRepo.Get(ctx, agentID)
	if err != nil {
		return err
	}
	agent.IsActive = false
	agent.UpdatedAt = time.Now().UTC()
	return a.agentRepo.Update(ctx, agent)
}

// keyResolver implements KeyResolver on top of the agent repository.
type keyResolver struct {
	agentRepo AgentRepository
}

// NewKeyResolver creates a KeyResolver backed by the agent store.
func NewKeyResolver(agentRepo AgentRepository) KeyResolver {
	return &keyResolver{agentRepo: agentRepo}
}

// ResolveKey returns the current public key for a DID.
func (r *keyResolver) ResolveKey(ctx context.Context, did string) (string, error) {
	agent, err := r.agentRepo.GetByDID(ctx, did)
	if err == nil {
		if !agent.IsActive {
			return "", identityDomain.ErrAgentInactive
		}
		return agent.PublicKey, nil
	}
	if !apperrors.Is(err, identityDomain.ErrAgentNotFound) {
		return "", err
	}

	// Unregistered self-certifying identity: the key is the DID. The key
	// table is still consulted so a rotated-away or revoked key cannot keep
	// authenticating through its old DID.
	pub, derr := cryptoutil.PublicKeyFromDID(did)
	if derr != nil {
		return "", identityDomain.ErrAgentNotFound
	}
	encoded := cryptoutil.EncodePublicKey(pub)

	key, kerr := r.agentRepo.GetKey(ctx, encoded)
	if kerr == nil && key.Status != identityDomain.KeyStatusCurrent {
		return "", identityDomain.ErrKeySuperseded
	}
	return encoded, nil
}

// RootCapabilities returns the agent's own capability set. Unregistered
// identities hold no root capabilities and may only act under delegation.
func (r *keyResolver) RootCapabilities(ctx context.Context, did string) ([]capability.Capability, error) {
	agent, err := r.agentRepo.GetByDID(ctx, did)
	if err != nil {
		if apperrors.Is(err, identityDomain.ErrAgentNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !agent.IsActive {
		return nil, identityDomain.ErrAgentInactive
	}
	return agent.RootCapabilities, nil
}
