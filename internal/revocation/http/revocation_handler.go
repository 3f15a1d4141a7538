// Package http provides HTTP handlers for the revocation registry: broadcast
// intake and status lookup.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moltid/authcore/internal/httputil"
	"github.com/moltid/authcore/internal/revocation/http/dto"
	revocationUseCase "github.com/moltid/authcore/internal/revocation/usecase"
	customValidation "github.com/moltid/authcore/internal/validation"
)

// RevocationHandler handles HTTP requests for revocation operations.
type RevocationHandler struct {
	registry revocationUseCase.Registry
	logger   *slog.Logger
}

// NewRevocationHandler creates a new revocation handler with required dependencies.
func NewRevocationHandler(
	registry revocationUseCase.Registry,
	logger *slog.Logger,
) *RevocationHandler {
	return &RevocationHandler{
		registry: registry,
		logger:   logger,
	}
}

// CreateHandler accepts a signed revocation record.
// POST /v1/revocations - Requires authentication with revoke capability.
// Returns 201 Created once the record is appended. A record signed by neither
// the subject's issuer nor a recovery quorum is rejected with 403.
func (h *RevocationHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateRevocationRequest

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

	record := req.ToDomain()

	// Call use case
	if err := h.registry.Record(c.Request.Context(), record); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("revocation recorded",
		slog.String("subject_id", record.SubjectID),
		slog.String("subject_kind", string(record.SubjectKind)),
	)

	c.JSON(http.StatusCreated, dto.MapRecordToResponse(record))
}

// GetHandler retrieves the revocation record for a subject id.
// GET /v1/revocations/:id - Requires authentication with read capability.
// Returns 404 when the subject has not been revoked.
func (h *RevocationHandler) GetHandler(c *gin.Context) {
	subjectID := c.Param("id")
	if subjectID == "" {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("id path parameter is required"),
			h.logger)
		return
	}

	record, err := h.registry.Get(c.Request.Context(), subjectID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRecordToResponse(record))
}

// StatusHandler reports whether a subject id is revoked.
// GET /v1/revocations/:id/status - Requires authentication with read capability.
// Always returns 200 OK; absence of a record is a valid answer, not an error.
func (h *RevocationHandler) StatusHandler(c *gin.Context) {
	subjectID := c.Param("id")
	if subjectID == "" {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("id path parameter is required"),
			h.logger)
		return
	}

	revoked, err := h.registry.IsRevoked(c.Request.Context(), subjectID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.StatusResponse{SubjectID: subjectID, Revoked: revoked})
}
