package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/moltid/authcore/internal/authz"
	"github.com/moltid/authcore/internal/capability"
	"github.com/moltid/authcore/internal/cryptoutil"
	delegationDomain "github.com/moltid/authcore/internal/delegation/domain"
)

// RevocationChecker is the narrow revocation view the validator needs.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// KeyResolver resolves a DID to its current wire-form public key.
type KeyResolver interface {
	ResolveKey(ctx context.Context, did string) (string, error)
}

// ChainValidatorConfig bounds the cost of a single validation.
type ChainValidatorConfig struct {
	// MaxDepth bounds chain length; exceeding it denies with ChainTooDeep.
	MaxDepth int

	// Timeout caps total chain-fetch latency, including every ancestor
	// round-trip. Exceeding it denies with ChainValidationTimeout.
	Timeout time.Duration
}

// DefaultChainValidatorConfig returns the standard bounds.
func DefaultChainValidatorConfig() ChainValidatorConfig {
	return ChainValidatorConfig{
		MaxDepth: 8,
		Timeout:  5 * time.Second,
	}
}

type chainValidator struct {
	tokens   TokenRepository
	revoked  RevocationChecker
	keys     KeyResolver
	verifier cryptoutil.Adapter
	cfg      ChainValidatorConfig
}

// NewChainValidator creates a ChainValidator. The revocation checker is an
// explicit dependency so tests and callers control exactly which registry
// state a validation observes.
func NewChainValidator(
	tokens TokenRepository,
	revoked RevocationChecker,
	keys KeyResolver,
	verifier cryptoutil.Adapter,
	cfg ChainValidatorConfig,
) ChainValidator {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultChainValidatorConfig().MaxDepth
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultChainValidatorConfig().Timeout
	}
	return &chainValidator{
		tokens:   tokens,
		revoked:  revoked,
		keys:     keys,
		verifier: verifier,
		cfg:      cfg,
	}
}

// ValidateChain validates the token and every ancestor it proves from.
func (v *chainValidator) ValidateChain(
	ctx context.Context,
	token *delegationDomain.Token,
	now time.Time,
) ([]capability.Capability, error) {
	ctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	visited := make(map[string]bool)
	caps, err := v.validate(ctx, token, now, visited, 0)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, authz.ErrChainValidationTimeout
		}
		return nil, err
	}
	return caps, nil
}

// ValidateChainByID fetches the token first, then validates it.
func (v *chainValidator) ValidateChainByID(
	ctx context.Context,
	id string,
	now time.Time,
) ([]capability.Capability, error) {
	token, err := v.tokens.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return v.ValidateChain(ctx, token, now)
}

func (v *chainValidator) validate(
	ctx context.Context,
	token *delegationDomain.Token,
	now time.Time,
	visited map[string]bool,
	depth int,
) ([]capability.Capability, error) {
	if depth >= v.cfg.MaxDepth {
		return nil, authz.ErrChainTooDeep
	}
	// A proof cycle is an unbounded chain; the visited set cuts it off.
	if visited[token.ID] {
		return nil, authz.ErrChainTooDeep
	}
	visited[token.ID] = true

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 1. Signature against the issuer's current key.
	issuerKey, err := v.keys.ResolveKey(ctx, token.Issuer)
	if err != nil {
		return nil, err
	}
	signed, err := SigningBytes(token)
	if err != nil {
		return nil, err
	}
	if !v.verifier.Verify(issuerKey, signed, token.Signature) {
		return nil, authz.ErrSignatureInvalid
	}

	// 2. Temporal validity and usage bound.
	if !token.ActiveAt(now) {
		return nil, authz.ErrDelegationExpired
	}
	if token.MaxUses > 0 {
		uses, err := v.tokens.Usage(ctx, token.ID)
		if err != nil {
			return nil, err
		}
		if uses >= token.MaxUses {
			return nil, authz.ErrDelegationExhausted
		}
	}

	// 3. Revocation. Checking at every level is what propagates a root
	// revocation to all descendants.
	revoked, err := v.revoked.IsRevoked(ctx, token.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, authz.ErrDelegationRevoked
	}

	// 4. A root token stands alone; its capabilities are the resolved set.
	if token.Root() {
		return token.Capabilities, nil
	}

	// 5. Validate each asserted parent and prove narrowing against the
	// union of their resolved capabilities.
	var parentCaps []capability.Capability
	for _, parentID := range token.ProofChain {
		parent, err := v.tokens.Get(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent.Audience != token.Issuer {
			return nil, authz.ErrScopeExceeded
		}
		if !parent.Policy.AllowDelegation {
			return nil, authz.ErrRedelegationForbidden
		}

		resolved, err := v.validate(ctx, parent, now, visited, depth+1)
		if err != nil {
			return nil, err
		}
		parentCaps = append(parentCaps, resolved...)
	}

	// Each capability must narrow some parent capability: OR across the
	// parents' capability list, AND across chain levels.
	for _, c := range token.Capabilities {
		if !narrowsAny(c, parentCaps) {
			return nil, authz.ErrScopeExceeded
		}
	}

	return token.Capabilities, nil
}

func narrowsAny(child capability.Capability, parents []capability.Capability) bool {
	for _, parent := range parents {
		if capability.IsSubset(child, parent) {
			return true
		}
	}
	return false
}

// SigningBytes returns the canonical byte form of a token that its issuer
// signature covers: the wire JSON with the signature field removed.
func SigningBytes(token *delegationDomain.Token) ([]byte, error) {
	return cryptoutil.CanonicalJSON(map[string]any{
		"id":           token.ID,
		"issuer":       token.Issuer,
		"audience":     token.Audience,
		"capabilities": token.Capabilities,
		"proof_chain":  token.ProofChain,
		"not_before":   token.NotBefore,
		"expires":      token.Expires,
		"max_uses":     token.MaxUses,
		"policy":       token.Policy,
	})
}
