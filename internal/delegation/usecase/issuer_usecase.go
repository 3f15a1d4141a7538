package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/moltid/authcore/internal/authz"
	"github.com/moltid/authcore/internal/cryptoutil"
	delegationDomain "github.com/moltid/authcore/internal/delegation/domain"
)

type issuerService struct {
	tokens    TokenRepository
	validator ChainValidator
	signer    cryptoutil.Adapter
}

// NewIssuer creates an Issuer. Every issued token is chain-validated before
// it is stored, so scope can only narrow at issuance time as well as at
// validation time.
func NewIssuer(tokens TokenRepository, validator ChainValidator, signer cryptoutil.Adapter) Issuer {
	return &issuerService{tokens: tokens, validator: validator, signer: signer}
}

// Issue signs a new token and stores it.
func (s *issuerService) Issue(ctx context.Context, input *IssueTokenInput) (*delegationDomain.Token, error) {
	if input.Issuer == "" || input.Audience == "" || len(input.Capabilities) == 0 {
		return nil, authz.ErrMalformedMessage
	}
	if input.IssuerKey == nil {
		return nil, authz.ErrSignatureInvalid
	}

	notBefore := input.NotBefore
	if notBefore.IsZero() {
		notBefore = time.Now().UTC()
	}
	if !input.Expires.After(notBefore) {
		return nil, authz.ErrDelegationExpired
	}

	token := &delegationDomain.Token{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Issuer:       input.Issuer,
		Audience:     input.Audience,
		Capabilities: input.Capabilities,
		ProofChain:   input.ProofChain,
		NotBefore:    notBefore.UnixMilli(),
		Expires:      input.Expires.UnixMilli(),
		MaxUses:      input.MaxUses,
		Policy:       delegationDomain.Policy{AllowDelegation: input.AllowDelegation},
	}

	signed, err := SigningBytes(token)
	if err != nil {
		return nil, err
	}
	token.Signature = s.signer.Sign(input.IssuerKey, signed)

	// Prove the token is acceptable before minting it. Validation happens
	// at the token's activation instant so a future not_before is not
	// rejected as inactive.
	if _, err := s.validator.ValidateChain(ctx, token, time.UnixMilli(token.NotBefore)); err != nil {
		return nil, err
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}
