// Package http provides HTTP handlers for delegation token intake and lookup.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moltid/authcore/internal/delegation/http/dto"
	delegationUseCase "github.com/moltid/authcore/internal/delegation/usecase"
	"github.com/moltid/authcore/internal/httputil"
	customValidation "github.com/moltid/authcore/internal/validation"
)

// DelegationHandler handles HTTP requests for delegation token operations.
type DelegationHandler struct {
	registrar delegationUseCase.Registrar
	logger    *slog.Logger
}

// NewDelegationHandler creates a new delegation handler with required dependencies.
func NewDelegationHandler(
	registrar delegationUseCase.Registrar,
	logger *slog.Logger,
) *DelegationHandler {
	return &DelegationHandler{
		registrar: registrar,
		logger:    logger,
	}
}

// SubmitHandler accepts an externally signed delegation token.
// POST /v1/delegations - Requires authentication with write capability.
// The token is fully chain-validated before storage; a token that fails
// validation is rejected with 403, never stored.
func (h *DelegationHandler) SubmitHandler(c *gin.Context) {
	var req dto.SubmitTokenRequest

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

	// Call use case
	caps, err := h.registrar.Submit(c.Request.Context(), req.ToDomain(), time.Now().UTC())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("delegation token accepted",
		slog.String("token_id", req.ID),
		slog.String("issuer", req.Issuer),
		slog.String("audience", req.Audience),
	)

	c.JSON(http.StatusCreated, dto.SubmitTokenResponse{
		ID:                   req.ID,
		ResolvedCapabilities: caps,
	})
}

// GetHandler retrieves a stored delegation token with its usage counter.
// GET /v1/delegations/:id - Requires authentication with read capability.
func (h *DelegationHandler) GetHandler(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("id path parameter is required"),
			h.logger)
		return
	}

	token, err := h.registrar.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	usage, err := h.registrar.Usage(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapTokenToResponse(token, usage))
}
