// Package http provides HTTP handlers for consent token registration and
// lookup.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moltid/authcore/internal/consent/http/dto"
	consentUseCase "github.com/moltid/authcore/internal/consent/usecase"
	"github.com/moltid/authcore/internal/httputil"
	customValidation "github.com/moltid/authcore/internal/validation"
)

// ConsentHandler handles HTTP requests for consent token operations.
type ConsentHandler struct {
	registrar consentUseCase.Registrar
	logger    *slog.Logger
}

// NewConsentHandler creates a new consent handler with required dependencies.
func NewConsentHandler(
	registrar consentUseCase.Registrar,
	logger *slog.Logger,
) *ConsentHandler {
	return &ConsentHandler{
		registrar: registrar,
		logger:    logger,
	}
}

// RegisterHandler accepts a signed consent token.
// POST /v1/consents - Requires authentication with write capability.
// The grantor's signature, expiry, and revocation status are verified before
// storage. Returns 201 Created.
func (h *ConsentHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterConsentRequest

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

	token := req.ToDomain()

	// Call use case
	if err := h.registrar.Register(c.Request.Context(), token, time.Now().UTC()); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("consent token registered",
		slog.String("token_id", token.ID),
		slog.String("granted_by", token.GrantedBy),
	)

	c.JSON(http.StatusCreated, dto.MapTokenToResponse(token))
}

// GetHandler retrieves a stored consent token.
// GET /v1/consents/:id - Requires authentication with read capability.
func (h *ConsentHandler) GetHandler(c *gin.Context) {
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

	c.JSON(http.StatusOK, dto.MapTokenToResponse(token))
}
