// Package dto provides data transfer objects for delegation token submission
// and lookup.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/moltid/authcore/internal/capability"
	delegationDomain "github.com/moltid/authcore/internal/delegation/domain"
	customValidation "github.com/moltid/authcore/internal/validation"
)

// SubmitTokenRequest carries an externally signed delegation token for
// intake. Field names follow the token wire format.
type SubmitTokenRequest struct {
	ID           string                  `json:"id"`
	Issuer       string                  `json:"issuer"`
	Audience     string                  `json:"audience"`
	Capabilities []capability.Capability `json:"capabilities"`
	ProofChain   []string                `json:"proof_chain"`
	NotBefore    int64                   `json:"not_before"`
	Expires      int64                   `json:"expires"`
	MaxUses      int64                   `json:"max_uses"`
	Policy       PolicyRequest           `json:"policy"`
	Signature    string                  `json:"signature"`
}

// PolicyRequest carries the delegation flags attached to a token.
type PolicyRequest struct {
	AllowDelegation bool `json:"allow_delegation"`
}

// Validate checks if the submit token request is valid. Signature and chain
// semantics are the use case's concern; this only rejects structurally
// unusable submissions.
func (r *SubmitTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Issuer,
			validation.Required,
			customValidation.DID,
		),
		validation.Field(&r.Audience,
			validation.Required,
			customValidation.DID,
		),
		validation.Field(&r.Capabilities,
			validation.Required,
		),
		validation.Field(&r.Expires,
			validation.Required,
			validation.Min(1),
		),
		validation.Field(&r.MaxUses,
			validation.Min(0),
		),
		validation.Field(&r.Signature,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// ToDomain converts the request to a domain token.
func (r *SubmitTokenRequest) ToDomain() *delegationDomain.Token {
	return &delegationDomain.Token{
		ID:           r.ID,
		Issuer:       r.Issuer,
		Audience:     r.Audience,
		Capabilities: r.Capabilities,
		ProofChain:   r.ProofChain,
		NotBefore:    r.NotBefore,
		Expires:      r.Expires,
		MaxUses:      r.MaxUses,
		Policy:       delegationDomain.Policy{AllowDelegation: r.Policy.AllowDelegation},
		Signature:    r.Signature,
	}
}
