// Package http provides HTTP handlers for agent lifecycle operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moltid/authcore/internal/httputil"
	identityDomain "github.com/moltid/authcore/internal/identity/domain"
	"github.com/moltid/authcore/internal/identity/http/dto"
	identityUseCase "github.com/moltid/authcore/internal/identity/usecase"
	customValidation "github.com/moltid/authcore/internal/validation"
)

// AgentHandler handles HTTP requests for agent management operations.
type AgentHandler struct {
	agentUseCase identityUseCase.AgentUseCase
	logger       *slog.Logger
}

// NewAgentHandler creates a new agent handler with required dependencies.
func NewAgentHandler(
	agentUseCase identityUseCase.AgentUseCase,
	logger *slog.Logger,
) *AgentHandler {
	return &AgentHandler{
		agentUseCase: agentUseCase,
		logger:       logger,
	}
}

// RegisterHandler registers a new agent.
// POST /v1/agents - Requires authentication with write capability.
// Returns 201 Created with the agent including its derived DID.
func (h *AgentHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterAgentRequest

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

	input := &identityDomain.RegisterAgentInput{
		Name:              req.Name,
		Org:               req.Org,
		PublicKey:         req.PublicKey,
		RootCapabilities:  req.RootCapabilities,
		RecoveryKeys:      req.RecoveryKeys,
		RecoveryThreshold: req.RecoveryThreshold,
	}

	// Call use case
	agent, err := h.agentUseCase.Register(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapAgentToResponse(agent))
}

// GetHandler retrieves an agent by ID.
// GET /v1/agents/:id - Requires authentication with read capability.
func (h *AgentHandler) GetHandler(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid agent ID format: must be a valid UUID"),
			h.logger)
		return
	}

	agent, err := h.agentUseCase.Get(c.Request.Context(), agentID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAgentToResponse(agent))
}

// GetByDIDHandler retrieves an agent by DID.
// GET /v1/agents/did/:did - Requires authentication with read capability.
func (h *AgentHandler) GetByDIDHandler(c *gin.Context) {
	did := c.Param("did")
	if did == "" {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("did path parameter is required"),
			h.logger)
		return
	}

	agent, err := h.agentUseCase.GetByDID(c.Request.Context(), did)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAgentToResponse(agent))
}

// RotateKeyHandler replaces an agent's signing key.
// POST /v1/agents/:id/rotate - Requires authentication with write capability.
// Returns 200 OK with the updated agent.
func (h *AgentHandler) RotateKeyHandler(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid agent ID format: must be a valid UUID"),
			h.logger)
		return
	}

	var req dto.RotateKeyRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	agent, err := h.agentUseCase.RotateKey(c.Request.Context(), agentID, req.PublicKey)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("agent key rotated", slog.String("agent_id", agentID.String()))

	c.JSON(http.StatusOK, dto.MapAgentToResponse(agent))
}

// DeactivateHandler soft-deletes an agent.
// DELETE /v1/agents/:id - Requires authentication with delete capability.
// Returns 204 No Content on success.
func (h *AgentHandler) DeactivateHandler(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid agent ID format: must be a valid UUID"),
			h.logger)
		return
	}

	if err := h.agentUseCase.Deactivate(c.Request.Context(), agentID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
