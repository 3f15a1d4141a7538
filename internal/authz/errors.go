// Package authz defines the authorization denial taxonomy shared by the
// envelope, delegation, revocation, replay, and consent components.
//
// Every error here is a terminal "deny" outcome: validation fails fast on the
// first violated check and the error is never downgraded or retried by this
// core. Retry policy belongs to the caller.
package authz

import (
	"github.com/moltid/authcore/internal/errors"
)

// Denial errors. Each wraps a generic domain sentinel so the HTTP layer can
// map it to a status code without knowing the full taxonomy.
var (
	// ErrMalformedMessage indicates a structurally invalid envelope: missing
	// required fields, unsupported version, or an unknown classification tag.
	ErrMalformedMessage = errors.Wrap(errors.ErrInvalidInput, "malformed message")

	// ErrSignatureInvalid indicates the envelope or token signature does not
	// verify against the signer's public key.
	ErrSignatureInvalid = errors.Wrap(errors.ErrForbidden, "signature invalid")

	// ErrTimestampOutOfRange indicates the message timestamp falls outside
	// the replay tolerance window.
	ErrTimestampOutOfRange = errors.Wrap(errors.ErrForbidden, "timestamp out of range")

	// ErrReplayDetected indicates the message id was already observed within
	// the replay window.
	ErrReplayDetected = errors.Wrap(errors.ErrForbidden, "replay detected")

	// ErrDelegationExpired indicates the delegation token is outside its
	// [not_before, expires] validity window.
	ErrDelegationExpired = errors.Wrap(errors.ErrForbidden, "delegation expired")

	// ErrDelegationExhausted indicates the delegation token's max_uses budget
	// has been spent.
	ErrDelegationExhausted = errors.Wrap(errors.ErrForbidden, "delegation exhausted")

	// ErrDelegationRevoked indicates the token, or any of its ancestors, has
	// a revocation record.
	ErrDelegationRevoked = errors.Wrap(errors.ErrForbidden, "delegation revoked")

	// ErrScopeExceeded indicates a capability is not covered by the parent
	// token's resolved set, or the requested operation is not covered by the
	// sender's resolved capabilities.
	ErrScopeExceeded = errors.Wrap(errors.ErrForbidden, "scope exceeded")

	// ErrRedelegationForbidden indicates a parent token with
	// allow_redelegation=false was used as a proof for a child token.
	ErrRedelegationForbidden = errors.Wrap(errors.ErrForbidden, "redelegation forbidden")

	// ErrChainTooDeep indicates the proof chain exceeds the configured
	// maximum delegation depth, or contains a cycle.
	ErrChainTooDeep = errors.Wrap(errors.ErrForbidden, "delegation chain too deep")

	// ErrChainValidationTimeout indicates chain validation did not complete
	// within the configured overall timeout.
	ErrChainValidationTimeout = errors.Wrap(errors.ErrForbidden, "chain validation timeout")

	// ErrConsentRequired indicates a pii-classified message carries no
	// consent token.
	ErrConsentRequired = errors.Wrap(errors.ErrForbidden, "consent required")

	// ErrConsentInvalid indicates the consent token failed signature, expiry,
	// or revocation checks.
	ErrConsentInvalid = errors.Wrap(errors.ErrForbidden, "consent invalid")

	// ErrConsentScopeMismatch indicates the payload contains PII types the
	// consent token does not cover.
	ErrConsentScopeMismatch = errors.Wrap(errors.ErrForbidden, "consent scope mismatch")

	// ErrSecretWithoutEncryption indicates a sec-classified message arrived
	// over a channel the transport did not mark as encrypted.
	ErrSecretWithoutEncryption = errors.Wrap(errors.ErrForbidden, "secret without encryption")

	// ErrUnauthorizedRevocation indicates a revocation record was signed by
	// neither the subject's issuer nor a quorum of recovery keys.
	ErrUnauthorizedRevocation = errors.Wrap(errors.ErrForbidden, "unauthorized revocation")
)

// Reason codes recorded in audit entries and returned to the relay.
const (
	CodeMalformedMessage        = "MALFORMED_MESSAGE"
	CodeSignatureInvalid        = "SIGNATURE_INVALID"
	CodeTimestampOutOfRange     = "TIMESTAMP_OUT_OF_RANGE"
	CodeReplayDetected          = "REPLAY_DETECTED"
	CodeDelegationExpired       = "DELEGATION_EXPIRED"
	CodeDelegationExhausted     = "DELEGATION_EXHAUSTED"
	CodeDelegationRevoked       = "DELEGATION_REVOKED"
	CodeScopeExceeded           = "SCOPE_EXCEEDED"
	CodeRedelegationForbidden   = "REDELEGATION_FORBIDDEN"
	CodeChainTooDeep            = "CHAIN_TOO_DEEP"
	CodeChainValidationTimeout  = "CHAIN_VALIDATION_TIMEOUT"
	CodeConsentRequired         = "CONSENT_REQUIRED"
	CodeConsentInvalid          = "CONSENT_INVALID"
	CodeConsentScopeMismatch    = "CONSENT_SCOPE_MISMATCH"
	CodeSecretWithoutEncryption = "SECRET_WITHOUT_ENCRYPTION"
	CodeUnauthorizedRevocation  = "UNAUTHORIZED_REVOCATION"
	CodeInternal                = "INTERNAL"
)

// Code maps a denial error to its stable reason code. Unknown errors map to
// CodeInternal so an infrastructure failure is never mistaken for a policy
// decision.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrMalformedMessage):
		return CodeMalformedMessage
	case errors.Is(err, ErrSignatureInvalid):
		return CodeSignatureInvalid
	case errors.Is(err, ErrTimestampOutOfRange):
		return CodeTimestampOutOfRange
	case errors.Is(err, ErrReplayDetected):
		return CodeReplayDetected
	case errors.Is(err, ErrDelegationExpired):
		return CodeDelegationExpired
	case errors.Is(err, ErrDelegationExhausted):
		return CodeDelegationExhausted
	case errors.Is(err, ErrDelegationRevoked):
		return CodeDelegationRevoked
	case errors.Is(err, ErrScopeExceeded):
		return CodeScopeExceeded
	case errors.Is(err, ErrRedelegationForbidden):
		return CodeRedelegationForbidden
	case errors.Is(err, ErrChainTooDeep):
		return CodeChainTooDeep
	case errors.Is(err, ErrChainValidationTimeout):
		return CodeChainValidationTimeout
	case errors.Is(err, ErrConsentRequired):
		return CodeConsentRequired
	case errors.Is(err, ErrConsentInvalid):
		return CodeConsentInvalid
	case errors.Is(err, ErrConsentScopeMismatch):
		return CodeConsentScopeMismatch
	case errors.Is(err, ErrSecretWithoutEncryption):
		return CodeSecretWithoutEncryption
	case errors.Is(err, ErrUnauthorizedRevocation):
		return CodeUnauthorizedRevocation
	default:
		return CodeInternal
	}
}

// IsDenial reports whether err belongs to the denial taxonomy, as opposed to
// an infrastructure failure (database down, fetch error) that should surface
// as an internal error.
func IsDenial(err error) bool {
	return Code(err) != CodeInternal
}
