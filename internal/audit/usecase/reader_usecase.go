package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/moltid/authcore/internal/audit/domain"
)

type reader struct {
	repo AuditRepository
}

// NewReader creates a Reader over stored audit records.
func NewReader(repo AuditRepository) Reader {
	return &reader{repo: repo}
}

// Get retrieves a record by id.
func (r *reader) Get(ctx context.Context, id uuid.UUID) (*auditDomain.Record, error) {
	return r.repo.Get(ctx, id)
}

// List returns records created in [from, to), newest first, up to limit.
func (r *reader) List(ctx context.Context, from, to time.Time, limit int) ([]*auditDomain.Record, error) {
	return r.repo.List(ctx, from, to, limit)
}
