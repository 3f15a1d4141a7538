package usecase

import (
	"context"
	"time"

	"github.com/moltid/authcore/internal/authz"
	consentDomain "github.com/moltid/authcore/internal/consent/domain"
	"github.com/moltid/authcore/internal/cryptoutil"
	apperrors "github.com/moltid/authcore/internal/errors"
	"github.com/moltid/authcore/internal/pii"
)

// RevocationChecker is the narrow revocation view the verifier needs.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// KeyResolver resolves a DID to its current wire-form public key.
type KeyResolver interface {
	ResolveKey(ctx context.Context, did string) (string, error)
}

type verifier struct {
	repo    ConsentRepository
	revoked RevocationChecker
	keys    KeyResolver
	adapter cryptoutil.Adapter
}

// NewVerifier creates a Verifier.
func NewVerifier(repo ConsentRepository, revoked RevocationChecker, keys KeyResolver, adapter cryptoutil.Adapter) Verifier {
	return &verifier{repo: repo, revoked: revoked, keys: keys, adapter: adapter}
}

// Verify checks the token against the detected PII types.
func (v *verifier) Verify(ctx context.Context, token *consentDomain.Token, detected []pii.Type, now time.Time) error {
	if token == nil {
		return authz.ErrConsentRequired
	}
	if token.ID == "" || token.GrantedBy == "" || token.Signature == "" {
		return authz.ErrConsentInvalid
	}

	grantorKey, err := v.keys.ResolveKey(ctx, token.GrantedBy)
	if err != nil {
		return apperrors.Wrap(authz.ErrConsentInvalid, "grantor key unresolved")
	}
	signed, err := SigningBytes(token)
	if err != nil {
		return err
	}
	if !v.adapter.Verify(grantorKey, signed, token.Signature) {
		return authz.ErrConsentInvalid
	}

	if !token.ActiveAt(now) {
		return authz.ErrConsentInvalid
	}

	revoked, err := v.revoked.IsRevoked(ctx, token.ID)
	if err != nil {
		return err
	}
	if revoked {
		return authz.ErrConsentInvalid
	}

	if !token.Covers(detected) {
		return authz.ErrConsentScopeMismatch
	}
	return nil
}

// VerifyByID fetches the token first, then verifies it.
func (v *verifier) VerifyByID(ctx context.Context, id string, detected []pii.Type, now time.Time) error {
	token, err := v.repo.Get(ctx, id)
	if err != nil {
		if apperrors.Is(err, consentDomain.ErrTokenNotFound) {
			return authz.ErrConsentInvalid
		}
		return err
	}
	return v.Verify(ctx, token, detected, now)
}

// SigningBytes returns the canonical byte form of a consent token that the
// grantor's signature covers: the wire JSON with the signature field removed.
func SigningBytes(token *consentDomain.Token) ([]byte, error) {
	return cryptoutil.CanonicalJSON(map[string]any{
		"id":            token.ID,
		"subject_types": token.SubjectTypes,
		"granted_by":    token.GrantedBy,
		"purpose":       token.Purpose,
		"scope":         token.Scope,
		"expires":       token.Expires,
	})
}
