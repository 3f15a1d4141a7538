// Package http provides the HTTP handler for envelope authorization, the
// single public entry point relays call for every inbound message.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moltid/authcore/internal/envelope/http/dto"
	envelopeUseCase "github.com/moltid/authcore/internal/envelope/usecase"
	"github.com/moltid/authcore/internal/httputil"
	customValidation "github.com/moltid/authcore/internal/validation"
)

// AuthorizeHandler handles HTTP requests for envelope authorization.
type AuthorizeHandler struct {
	authorizer envelopeUseCase.Authorizer
	logger     *slog.Logger
}

// NewAuthorizeHandler creates a new authorize handler with required dependencies.
func NewAuthorizeHandler(
	authorizer envelopeUseCase.Authorizer,
	logger *slog.Logger,
) *AuthorizeHandler {
	return &AuthorizeHandler{
		authorizer: authorizer,
		logger:     logger,
	}
}

// AuthorizeHandler decides whether a wire envelope may be delivered.
// POST /v1/authorize - Requires authentication with authorize capability.
// Returns 200 OK with the decision for both allow and deny verdicts; policy
// denials are not HTTP errors. Infrastructure failures return 5xx.
func (h *AuthorizeHandler) AuthorizeHandler(c *gin.Context) {
	var req dto.AuthorizeRequest

	// Parse and bind JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	// Validate request
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	transport := envelopeUseCase.Transport{
		Encrypted: req.Transport.Encrypted,
		Platform:  req.Transport.Platform,
		RateCount: req.Transport.RateCount,
	}

	// Call use case
	decision, err := h.authorizer.Authorize(c.Request.Context(), req.Envelope, transport, time.Now().UTC())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if !decision.Allowed {
		h.logger.Info("envelope denied",
			slog.String("reason_code", decision.ReasonCode),
		)
	}

	c.JSON(http.StatusOK, dto.MapDecisionToResponse(decision))
}
