package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moltid/authcore/internal/authz"
	consentDomain "github.com/moltid/authcore/internal/consent/domain"
	"github.com/moltid/authcore/internal/pii"
)

// sign builds and signs a token without storing it, so registrar tests can
// exercise the registration path itself.
func (f *consentFixture) sign(t *testing.T, types []pii.Type, expires time.Time) *consentDomain.Token {
	t.Helper()
	token := &consentDomain.Token{
		ID:           uuid.Must(uuid.NewV7()).String(),
		SubjectTypes: types,
		GrantedBy:    f.grantor,
		Purpose:      "support",
		Scope:        "tickets/*",
		Expires:      expires.UnixMilli(),
	}
	signed, err := SigningBytes(token)
	require.NoError(t, err)
	token.Signature = f.adapter.Sign(f.priv, signed)
	return token
}

func TestRegistrar_Register(t *testing.T) {
	f := newConsentFixture(t)
	registrar := NewRegistrar(f.repo, f.verifier)
	ctx := context.Background()

	token := f.sign(t, []pii.Type{pii.TypeEmail}, time.Now().Add(time.Hour))

	err := registrar.Register(ctx, token, time.Now())
	require.NoError(t, err)

	stored, err := registrar.Get(ctx, token.ID)
	require.NoError(t, err)
	assert.Equal(t, token.Signature, stored.Signature)
}

func TestRegistrar_RegisterExpired(t *testing.T) {
	f := newConsentFixture(t)
	registrar := NewRegistrar(f.repo, f.verifier)
	ctx := context.Background()

	token := f.sign(t, []pii.Type{pii.TypeEmail}, time.Now().Add(-time.Minute))

	err := registrar.Register(ctx, token, time.Now())
	assert.ErrorIs(t, err, authz.ErrConsentInvalid)

	_, err = registrar.Get(ctx, token.ID)
	assert.ErrorIs(t, err, consentDomain.ErrTokenNotFound)
}

func TestRegistrar_RegisterTampered(t *testing.T) {
	f := newConsentFixture(t)
	registrar := NewRegistrar(f.repo, f.verifier)
	ctx := context.Background()

	token := f.sign(t, []pii.Type{pii.TypeEmail}, time.Now().Add(time.Hour))
	token.Scope = "tickets/admin/*"

	err := registrar.Register(ctx, token, time.Now())
	assert.ErrorIs(t, err, authz.ErrConsentInvalid)
}

func TestRegistrar_RegisterUnknownGrantor(t *testing.T) {
	f := newConsentFixture(t)
	registrar := NewRegistrar(f.repo, f.verifier)
	ctx := context.Background()

	token := f.sign(t, []pii.Type{pii.TypeEmail}, time.Now().Add(time.Hour))
	delete(f.keys, f.grantor)

	err := registrar.Register(ctx, token, time.Now())
	assert.ErrorIs(t, err, authz.ErrConsentInvalid)
}

func TestRegistrar_RegisterDuplicate(t *testing.T) {
	f := newConsentFixture(t)
	registrar := NewRegistrar(f.repo, f.verifier)
	ctx := context.Background()

	token := f.sign(t, []pii.Type{pii.TypeEmail}, time.Now().Add(time.Hour))

	require.NoError(t, registrar.Register(ctx, token, time.Now()))
	err := registrar.Register(ctx, token, time.Now())
	assert.ErrorIs(t, err, consentDomain.ErrTokenAlreadyExists)
}
