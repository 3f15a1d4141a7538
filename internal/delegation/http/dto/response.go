package dto

import (
	"github.com/moltid/authcore/internal/capability"
	delegationDomain "github.com/moltid/authcore/internal/delegation/domain"
)

// TokenResponse contains a stored delegation token in wire form.
type TokenResponse struct {
	ID           string                  `json:"id"`
	Issuer       string                  `json:"issuer"`
	Audience     string                  `json:"audience"`
	Capabilities []capability.Capability `json:"capabilities"`
	ProofChain   []string                `json:"proof_chain,omitempty"`
	NotBefore    int64                   `json:"not_before"`
	Expires      int64                   `json:"expires"`
	MaxUses      int64                   `json:"max_uses,omitempty"`
	Usage        int64                   `json:"usage"`
	Policy       PolicyResponse          `json:"policy"`
	Signature    string                  `json:"signature"`
}

// PolicyResponse contains the delegation flags attached to a token.
type PolicyResponse struct {
	AllowDelegation bool `json:"allow_delegation"`
}

// SubmitTokenResponse confirms an accepted submission together with the
// capability set the chain resolved to.
type SubmitTokenResponse struct {
	ID                   string                  `json:"id"`
	ResolvedCapabilities []capability.Capability `json:"resolved_capabilities"`
}

// MapTokenToResponse converts a domain token and its usage counter to the
// response DTO.
func MapTokenToResponse(token *delegationDomain.Token, usage int64) TokenResponse {
	return TokenResponse{
		ID:           token.ID,
		Issuer:       token.Issuer,
		Audience:     token.Audience,
		Capabilities: token.Capabilities,
		ProofChain:   token.ProofChain,
		NotBefore:    token.NotBefore,
		Expires:      token.Expires,
		MaxUses:      token.MaxUses,
		Usage:        usage,
		Policy:       PolicyResponse{AllowDelegation: token.Policy.AllowDelegation},
		Signature:    token.Signature,
	}
}
