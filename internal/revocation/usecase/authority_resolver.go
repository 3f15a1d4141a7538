package usecase

import (
	"context"

	"github.com/google/uuid"

	consentDomain "github.com/moltid/authcore/internal/consent/domain"
	delegationDomain "github.com/moltid/authcore/internal/delegation/domain"
	apperrors "github.com/moltid/authcore/internal/errors"
	identityDomain "github.com/moltid/authcore/internal/identity/domain"
	revocationDomain "github.com/moltid/authcore/internal/revocation/domain"
)

// TokenLookup is the delegation store view the resolver needs.
type TokenLookup interface {
	Get(ctx context.Context, id string) (*delegationDomain.Token, error)
}

// ConsentLookup is the consent store view the resolver needs.
type ConsentLookup interface {
	Get(ctx context.Context, id string) (*consentDomain.Token, error)
}

// AgentLookup is the identity store view the resolver needs.
type AgentLookup interface {
	Get(ctx context.Context, agentID uuid.UUID) (*identityDomain.Agent, error)
	GetByDID(ctx context.Context, did string) (*identityDomain.Agent, error)
	GetKey(ctx context.Context, publicKey string) (*identityDomain.AgentKey, error)
}

// KeyResolver resolves a DID to its current wire-form public key.
type KeyResolver interface {
	ResolveKey(ctx context.Context, did string) (string, error)
}

// authorityResolver maps a revocation subject to who may revoke it: the
// issuer that signed it, plus the issuer's recovery keys when the issuer is
// a registered agent.
type authorityResolver struct {
	tokens   TokenLookup
	consents ConsentLookup
	agents   AgentLookup
	keys     KeyResolver
}

// NewAuthorityResolver creates an AuthorityResolver over the three subject
// stores.
func NewAuthorityResolver(tokens TokenLookup, consents ConsentLookup, agents AgentLookup, keys KeyResolver) AuthorityResolver {
	return &authorityResolver{tokens: tokens, consents: consents, agents: agents, keys: keys}
}

func (r *authorityResolver) ResolveAuthority(
	ctx context.Context,
	subjectID string,
	kind revocationDomain.SubjectKind,
) (*revocationDomain.Authority, error) {
	switch kind {
	case revocationDomain.SubjectKindDelegation:
		token, err := r.tokens.Get(ctx, subjectID)
		if err != nil {
			if apperrors.Is(err, delegationDomain.ErrTokenNotFound) {
				return nil, revocationDomain.ErrUnknownSubject
			}
			return nil, err
		}
		return r.identityAuthority(ctx, token.Issuer)

	case revocationDomain.SubjectKindConsent:
		token, err := r.consents.Get(ctx, subjectID)
		if err != nil {
			if apperrors.Is(err, consentDomain.ErrTokenNotFound) {
				return nil, revocationDomain.ErrUnknownSubject
			}
			return nil, err
		}
		return r.identityAuthority(ctx, token.GrantedBy)

	case revocationDomain.SubjectKindKey:
		key, err := r.agents.GetKey(ctx, subjectID)
		if err != nil {
			if apperrors.Is(err, identityDomain.ErrKeyNotFound) {
				return nil, revocationDomain.ErrUnknownSubject
			}
			return nil, err
		}
		agent, err := r.agents.Get(ctx, key.AgentID)
		if err != nil {
			return nil, err
		}
		return &revocationDomain.Authority{
			IssuerKey:         agent.PublicKey,
			RecoveryKeys:      agent.RecoveryKeys,
			RecoveryThreshold: agent.RecoveryThreshold,
		}, nil

	default:
		return nil, revocationDomain.ErrUnknownSubject
	}
}

// identityAuthority resolves the authority for a DID-identified issuer. For
// registered agents the recovery set applies; self-certifying identities can
// only be revoked by their own key.
func (r *authorityResolver) identityAuthority(ctx context.Context, did string) (*revocationDomain.Authority, error) {
	agent, err := r.agents.GetByDID(ctx, did)
	if err == nil {
		return &revocationDomain.Authority{
			IssuerKey:         agent.PublicKey,
			RecoveryKeys:      agent.RecoveryKeys,
			RecoveryThreshold: agent.RecoveryThreshold,
		}, nil
	}
	if !apperrors.Is(err, identityDomain.ErrAgentNotFound) {
		return nil, err
	}

	key, err := r.keys.ResolveKey(ctx, did)
	if err != nil {
		return nil, revocationDomain.ErrUnknownSubject
	}
	return &revocationDomain.Authority{IssuerKey: key}, nil
}
