package usecase

import (
	"context"
	"time"

	auditDomain "github.com/moltid/authcore/internal/audit/domain"
	"github.com/moltid/authcore/internal/authz"
	"github.com/moltid/authcore/internal/capability"
	"github.com/moltid/authcore/internal/cryptoutil"
	delegationDomain "github.com/moltid/authcore/internal/delegation/domain"
	envelopeDomain "github.com/moltid/authcore/internal/envelope/domain"
	"github.com/moltid/authcore/internal/errors"
	"github.com/moltid/authcore/internal/pii"
)

type authorizer struct {
	keys        KeyResolver
	delegations DelegationSource
	chain       ChainValidator
	consent     ConsentVerifier
	replay      ReplayGuard
	audit       AuditSink
	detector    PIIDetector
	verifier    cryptoutil.Adapter
}

// NewAuthorizer creates the envelope authorizer.
func NewAuthorizer(
	keys KeyResolver,
	delegations DelegationSource,
	chain ChainValidator,
	consent ConsentVerifier,
	replay ReplayGuard,
	audit AuditSink,
	detector PIIDetector,
) Authorizer {
	return &authorizer{
		keys:        keys,
		delegations: delegations,
		chain:       chain,
		consent:     consent,
		replay:      replay,
		audit:       audit,
		detector:    detector,
		verifier:    cryptoutil.NewAdapter(),
	}
}

func (a *authorizer) Authorize(ctx context.Context, raw []byte, transport Transport, now time.Time) (*Decision, error) {
	env, err := envelopeDomain.Parse(raw)
	if err != nil {
		return a.deny(ctx, env, err)
	}

	if env.ExpiredAt(now) {
		return a.deny(ctx, env, authz.ErrTimestampOutOfRange)
	}

	// The sender's key always resolves through the identity layer; an
	// inline from.key is only accepted when it matches. An unresolvable or
	// rotated-away key means the signature cannot be attributed.
	senderKey, err := a.keys.ResolveKey(ctx, env.From.Agent)
	if err != nil {
		return a.deny(ctx, env, errors.Wrap(authz.ErrSignatureInvalid, err.Error()))
	}
	if env.From.Key != "" && env.From.Key != senderKey {
		return a.deny(ctx, env, authz.ErrSignatureInvalid)
	}

	if env.Signature == "" {
		return a.deny(ctx, env, authz.ErrSignatureInvalid)
	}
	signed, err := env.SigningBytes()
	if err != nil {
		return nil, err
	}
	if !a.verifier.Verify(senderKey, signed, env.Signature) {
		return a.deny(ctx, env, authz.ErrSignatureInvalid)
	}

	if err := a.replay.Check(env.ID, env.SentAt(), now); err != nil {
		return a.deny(ctx, env, err)
	}

	caps, err := a.resolveCapabilities(ctx, env, now)
	if err != nil {
		return a.deny(ctx, env, err)
	}

	capCtx := capability.Context{
		Platform:  transport.Platform,
		RateCount: transport.RateCount,
	}
	matched, ok := capability.Covers(caps, env.Operation.Resource(), capability.Action(env.Operation.Action()), capCtx)
	if !ok {
		return a.deny(ctx, env, authz.ErrScopeExceeded)
	}
	for _, required := range env.CapabilitiesRequired {
		if _, ok := capability.Covers(caps, required, capability.Action(env.Operation.Action()), capCtx); !ok {
			return a.deny(ctx, env, authz.ErrScopeExceeded)
		}
	}

	if err := a.checkClassification(ctx, env, transport, now); err != nil {
		return a.deny(ctx, env, err)
	}

	if env.From.Delegation != "" {
		if err := a.delegations.RecordUse(ctx, env.From.Delegation); err != nil {
			return nil, err
		}
	}

	decision := &Decision{Allowed: true, ResolvedCapability: matched.String()}
	return decision, a.audit.Emit(ctx, a.record(env, auditDomain.VerdictAllow, "", decision.ResolvedCapability))
}

// resolveCapabilities returns the capability set the sender acts under: the
// validated delegation chain when one is asserted, the agent's standing
// capabilities otherwise.
func (a *authorizer) resolveCapabilities(ctx context.Context, env *envelopeDomain.Envelope, now time.Time) ([]capability.Capability, error) {
	if env.From.Delegation == "" {
		return a.keys.RootCapabilities(ctx, env.From.Agent)
	}

	token, err := a.delegations.Get(ctx, env.From.Delegation)
	if err != nil {
		if errors.Is(err, delegationDomain.ErrTokenNotFound) {
			return nil, errors.Wrap(authz.ErrScopeExceeded, "unknown delegation")
		}
		return nil, err
	}
	// A token only authorizes the agent it was delegated to.
	if token.Audience != env.From.Agent {
		return nil, errors.Wrap(authz.ErrScopeExceeded, "delegation audience mismatch")
	}
	return a.chain.ValidateChain(ctx, token, now)
}

// checkClassification enforces the sensitivity rules: secrets stay inside
// one organization and on encrypted channels, and personal data moves only
// under a consent token covering everything actually present in the payload.
func (a *authorizer) checkClassification(ctx context.Context, env *envelopeDomain.Envelope, transport Transport, now time.Time) error {
	if env.Classification == envelopeDomain.ClassificationSecret {
		if env.From.Org != "" && env.To.Org != "" && env.From.Org != env.To.Org {
			return errors.Wrap(authz.ErrScopeExceeded, "secret across organizations")
		}
		if !transport.Encrypted {
			return authz.ErrSecretWithoutEncryption
		}
		return nil
	}

	detected := a.detector.Detect(string(env.Payload))

	if env.Classification != envelopeDomain.ClassificationPII {
		// Personal data in a message not declared as such moves without
		// any consent path.
		if len(detected) > 0 {
			return authz.ErrConsentRequired
		}
		return nil
	}

	proof := env.ConsentProof()
	if proof == "" {
		return authz.ErrConsentRequired
	}
	if !pii.CoveredBy(detected, env.PII.Types) {
		return authz.ErrConsentScopeMismatch
	}
	return a.consent.VerifyByID(ctx, proof, detected, now)
}

// deny converts a policy denial into a Decision and records it. Errors
// outside the denial taxonomy are infrastructure failures and propagate
// unchanged: a database outage must not read as a policy verdict.
func (a *authorizer) deny(ctx context.Context, env *envelopeDomain.Envelope, cause error) (*Decision, error) {
	if !authz.IsDenial(cause) {
		return nil, cause
	}
	code := authz.Code(cause)
	if err := a.audit.Emit(ctx, a.record(env, auditDomain.VerdictDeny, code, "")); err != nil {
		return nil, err
	}
	return &Decision{Allowed: false, ReasonCode: code}, nil
}

func (a *authorizer) record(env *envelopeDomain.Envelope, verdict auditDomain.Verdict, reasonCode, resolved string) *auditDomain.Record {
	rec := &auditDomain.Record{
		Verdict:            verdict,
		ReasonCode:         reasonCode,
		ResolvedCapability: resolved,
	}
	if env != nil {
		rec.MessageID = env.ID
		rec.Sender = env.From.Agent
		rec.Operation = string(env.Operation)
	}
	return rec
}
