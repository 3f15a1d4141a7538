// Package http provides HTTP handlers for audit record inspection.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moltid/authcore/internal/audit/http/dto"
	auditUseCase "github.com/moltid/authcore/internal/audit/usecase"
	"github.com/moltid/authcore/internal/httputil"
)

const (
	defaultListWindow = 24 * time.Hour
	defaultListLimit  = 50
	maxListLimit      = 1000
)

// AuditHandler handles HTTP requests for audit record operations.
type AuditHandler struct {
	reader auditUseCase.Reader
	logger *slog.Logger
}

// NewAuditHandler creates a new audit handler with required dependencies.
func NewAuditHandler(
	reader auditUseCase.Reader,
	logger *slog.Logger,
) *AuditHandler {
	return &AuditHandler{
		reader: reader,
		logger: logger,
	}
}

// GetHandler retrieves an audit record by ID.
// GET /v1/audit-records/:id - Requires authentication with read capability.
func (h *AuditHandler) GetHandler(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid record ID format: must be a valid UUID"),
			h.logger)
		return
	}

	record, err := h.reader.Get(c.Request.Context(), recordID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRecordToResponse(record))
}

// ListHandler retrieves audit records in a time range, newest first.
// GET /v1/audit-records?from=&to=&limit= - Requires authentication with read
// capability. Timestamps are RFC3339; the range defaults to the last 24 hours.
func (h *AuditHandler) ListHandler(c *gin.Context) {
	now := time.Now().UTC()

	to, err := parseTimeParam(c.Query("to"), now)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid to parameter: must be an RFC3339 timestamp"),
			h.logger)
		return
	}

	from, err := parseTimeParam(c.Query("from"), to.Add(-defaultListWindow))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid from parameter: must be an RFC3339 timestamp"),
			h.logger)
		return
	}

	if !from.Before(to) {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid range: from must be before to"),
			h.logger)
		return
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			httputil.HandleValidationErrorGin(c,
				fmt.Errorf("invalid limit parameter: must be between 1 and %d", maxListLimit),
				h.logger)
			return
		}
	}

	records, err := h.reader.List(c.Request.Context(), from, to, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRecordsToListResponse(records))
}

func parseTimeParam(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.Parse(time.RFC3339, raw)
}
