// Package domain defines the delegation token model. A token grants its
// audience a set of capabilities narrowed from what the issuer holds; chains
// of tokens prove authority back to a root grant.
package domain

import (
	"time"

	"github.com/moltid/authcore/internal/capability"
)

// Policy carries the delegation flags an issuer attaches to a token.
type Policy struct {
	// AllowDelegation permits the audience to issue further tokens narrowed
	// from this one. When false the token is a leaf grant.
	AllowDelegation bool `json:"allow_delegation"`
}

// Token is a signed delegation from issuer to audience. Timestamps are unix
// milliseconds to match the envelope wire format.
type Token struct {
	ID           string                  `json:"id"`
	Issuer       string                  `json:"issuer"`
	Audience     string                  `json:"audience"`
	Capabilities []capability.Capability `json:"capabilities"`

	// ProofChain lists the parent token ids this token narrows from. Empty
	// for a root token. Chains are singly linked in practice; the list form
	// is kept for forward compatibility with multi-parent attestation.
	ProofChain []string `json:"proof_chain,omitempty"`

	NotBefore int64 `json:"not_before"`
	Expires   int64 `json:"expires"`

	// MaxUses bounds how many times the token may authorize a message.
	// Zero means unlimited.
	MaxUses int64 `json:"max_uses,omitempty"`

	Policy    Policy `json:"policy"`
	Signature string `json:"signature"`
}

// Root reports whether the token asserts no parent proof.
func (t *Token) Root() bool {
	return len(t.ProofChain) == 0
}

// ActiveAt reports whether now falls within [not_before, expires]. Both
// bounds are inclusive: a token is still valid at the exact expiry instant.
func (t *Token) ActiveAt(now time.Time) bool {
	ms := now.UnixMilli()
	return ms >= t.NotBefore && ms <= t.Expires
}
