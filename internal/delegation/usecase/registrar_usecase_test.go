package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moltid/authcore/internal/authz"
	delegationDomain "github.com/moltid/authcore/internal/delegation/domain"
)

// build constructs and signs a token without storing it, so registrar tests
// can exercise the submission path itself.
func (f *chainFixture) build(t *testing.T, spec tokenSpec) *delegationDomain.Token {
	t.Helper()
	if spec.notBefore.IsZero() {
		spec.notBefore = time.Now().Add(-time.Minute)
	}
	if spec.expires.IsZero() {
		spec.expires = time.Now().Add(time.Hour)
	}
	token := &delegationDomain.Token{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Issuer:       spec.issuer.did,
		Audience:     spec.audience.did,
		Capabilities: spec.capabilities,
		ProofChain:   spec.proofChain,
		NotBefore:    spec.notBefore.UnixMilli(),
		Expires:      spec.expires.UnixMilli(),
		MaxUses:      spec.maxUses,
		Policy:       delegationDomain.Policy{AllowDelegation: spec.allowDelegation},
	}
	signed, err := SigningBytes(token)
	require.NoError(t, err)
	token.Signature = f.verifier.Sign(spec.issuer.priv, signed)
	return token
}

func TestRegistrar_Submit(t *testing.T) {
	human := newTestAgent(t)
	agentA := newTestAgent(t)
	f := newChainFixture(human, agentA)
	registrar := NewRegistrar(f.tokens, f.validator(DefaultChainValidatorConfig()))
	ctx := context.Background()

	token := f.build(t, tokenSpec{
		issuer:       human,
		audience:     agentA,
		capabilities: caps("messages/*", "*"),
	})

	resolved, err := registrar.Submit(ctx, token, time.Now())
	require.NoError(t, err)
	assert.Equal(t, token.Capabilities, resolved)

	stored, err := registrar.Get(ctx, token.ID)
	require.NoError(t, err)
	assert.Equal(t, token.Signature, stored.Signature)
}

func TestRegistrar_SubmitChild(t *testing.T) {
	human := newTestAgent(t)
	agentA := newTestAgent(t)
	agentB := newTestAgent(t)
	f := newChainFixture(human, agentA, agentB)
	registrar := NewRegistrar(f.tokens, f.validator(DefaultChainValidatorConfig()))
	ctx := context.Background()

	root := f.mint(t, tokenSpec{
		issuer:          human,
		audience:        agentA,
		capabilities:    caps("messages/*", "*"),
		allowDelegation: true,
	})

	child := f.build(t, tokenSpec{
		issuer:       agentA,
		audience:     agentB,
		capabilities: caps("messages/inbox", "read"),
		proofChain:   []string{root.ID},
	})

	resolved, err := registrar.Submit(ctx, child, time.Now())
	require.NoError(t, err)
	assert.Equal(t, child.Capabilities, resolved)
}

func TestRegistrar_SubmitWidenedChild(t *testing.T) {
	human := newTestAgent(t)
	agentA := newTestAgent(t)
	agentB := newTestAgent(t)
	f := newChainFixture(human, agentA, agentB)
	registrar := NewRegistrar(f.tokens, f.validator(DefaultChainValidatorConfig()))
	ctx := context.Background()

	root := f.mint(t, tokenSpec{
		issuer:          human,
		audience:        agentA,
		capabilities:    caps("messages/inbox", "read"),
		allowDelegation: true,
	})

	child := f.build(t, tokenSpec{
		issuer:       agentA,
		audience:     agentB,
		capabilities: caps("messages/*", "*"),
		proofChain:   []string{root.ID},
	})

	_, err := registrar.Submit(ctx, child, time.Now())
	assert.ErrorIs(t, err, authz.ErrScopeExceeded)

	_, err = registrar.Get(ctx, child.ID)
	assert.ErrorIs(t, err, delegationDomain.ErrTokenNotFound)
}

func TestRegistrar_SubmitMalformed(t *testing.T) {
	human := newTestAgent(t)
	agentA := newTestAgent(t)
	f := newChainFixture(human, agentA)
	registrar := NewRegistrar(f.tokens, f.validator(DefaultChainValidatorConfig()))
	ctx := context.Background()

	token := f.build(t, tokenSpec{
		issuer:       human,
		audience:     agentA,
		capabilities: caps("messages/*", "*"),
	})
	token.Issuer = ""

	_, err := registrar.Submit(ctx, token, time.Now())
	assert.ErrorIs(t, err, authz.ErrMalformedMessage)
}

func TestRegistrar_SubmitMissingSignature(t *testing.T) {
	human := newTestAgent(t)
	agentA := newTestAgent(t)
	f := newChainFixture(human, agentA)
	registrar := NewRegistrar(f.tokens, f.validator(DefaultChainValidatorConfig()))
	ctx := context.Background()

	token := f.build(t, tokenSpec{
		issuer:       human,
		audience:     agentA,
		capabilities: caps("messages/*", "*"),
	})
	token.Signature = ""

	_, err := registrar.Submit(ctx, token, time.Now())
	assert.ErrorIs(t, err, authz.ErrSignatureInvalid)
}

func TestRegistrar_SubmitDuplicate(t *testing.T) {
	human := newTestAgent(t)
	agentA := newTestAgent(t)
	f := newChainFixture(human, agentA)
	registrar := NewRegistrar(f.tokens, f.validator(DefaultChainValidatorConfig()))
	ctx := context.Background()

	token := f.build(t, tokenSpec{
		issuer:       human,
		audience:     agentA,
		capabilities: caps("messages/*", "*"),
	})

	_, err := registrar.Submit(ctx, token, time.Now())
	require.NoError(t, err)

	_, err = registrar.Submit(ctx, token, time.Now())
	assert.ErrorIs(t, err, delegationDomain.ErrTokenAlreadyExists)
}

func TestRegistrar_Usage(t *testing.T) {
	human := newTestAgent(t)
	agentA := newTestAgent(t)
	f := newChainFixture(human, agentA)
	registrar := NewRegistrar(f.tokens, f.validator(DefaultChainValidatorConfig()))
	ctx := context.Background()

	token := f.mint(t, tokenSpec{
		issuer:       human,
		audience:     agentA,
		capabilities: caps("messages/*", "*"),
		maxUses:      5,
	})
	require.NoError(t, f.tokens.RecordUse(ctx, token.ID))
	require.NoError(t, f.tokens.RecordUse(ctx, token.ID))

	usage, err := registrar.Usage(ctx, token.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, usage)
}
