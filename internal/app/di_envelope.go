package app

import (
	"fmt"

	envelopeHTTP "github.com/moltid/authcore/internal/envelope/http"
	envelopeUseCase "github.com/moltid/authcore/internal/envelope/usecase"
	"github.com/moltid/authcore/internal/pii"
	"github.com/moltid/authcore/internal/replay"
)

// ReplayGuard returns the in-memory replay guard.
func (c *Container) ReplayGuard() *replay.Guard {
	c.replayGuardInit.Do(func() {
		c.replayGuard = replay.NewGuard(c.config.ReplayWindow, c.config.ReplayMaxEntries)
	})
	return c.replayGuard
}

// PIIDetector returns the payload PII detector.
func (c *Container) PIIDetector() *pii.Detector {
	c.piiDetectorInit.Do(func() {
		c.piiDetector = pii.NewDetector()
	})
	return c.piiDetector
}

// Authorizer returns the envelope authorizer.
func (c *Container) Authorizer() (envelopeUseCase.Authorizer, error) {
	var err error
	c.authorizerInit.Do(func() {
		c.authorizer, err = c.initAuthorizer()
		if err != nil {
			c.initErrors["authorizer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authorizer"]; exists {
		return nil, storedErr
	}
	return c.authorizer, nil
}

// AuthorizeHandler returns the HTTP handler for envelope authorization.
func (c *Container) AuthorizeHandler() (*envelopeHTTP.AuthorizeHandler, error) {
	var err error
	c.authorizeHandlerInit.Do(func() {
		c.authorizeHandler, err = c.initAuthorizeHandler()
		if err != nil {
			c.initErrors["authorizeHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authorizeHandler"]; exists {
		return nil, storedErr
	}
	return c.authorizeHandler, nil
}

// initAuthorizer creates the envelope authorizer with all its dependencies.
func (c *Container) initAuthorizer() (envelopeUseCase.Authorizer, error) {
	keyResolver, err := c.KeyResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to get key resolver for authorizer: %w", err)
	}

	delegations, err := c.DelegationTokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get delegation token repository for authorizer: %w", err)
	}

	chainValidator, err := c.ChainValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to get chain validator for authorizer: %w", err)
	}

	consentVerifier, err := c.ConsentVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent verifier for authorizer: %w", err)
	}

	auditSink, err := c.AuditSink()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit sink for authorizer: %w", err)
	}

	return envelopeUseCase.NewAuthorizer(
		keyResolver,
		delegations,
		chainValidator,
		consentVerifier,
		c.ReplayGuard(),
		auditSink,
		c.PIIDetector(),
	), nil
}

// initAuthorizeHandler creates the envelope authorization HTTP handler.
func (c *Container) initAuthorizeHandler() (*envelopeHTTP.AuthorizeHandler, error) {
	authorizer, err := c.Authorizer()
	if err != nil {
		return nil, fmt.Errorf("failed to get authorizer for authorize handler: %w", err)
	}

	return envelopeHTTP.NewAuthorizeHandler(authorizer, c.Logger()), nil
}
