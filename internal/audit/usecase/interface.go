// Package usecase implements the audit sink: every authorization verdict is
// signed and persisted exactly once, strictly after the decision is final.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/moltid/authcore/internal/audit/domain"
)

// AuditRepository defines persistence operations for audit records.
type AuditRepository interface {
	// Create stores a new audit record.
	Create(ctx context.Context, record *auditDomain.Record) error

	// Get retrieves a record by id. Returns ErrRecordNotFound if not found.
	Get(ctx context.Context, id uuid.UUID) (*auditDomain.Record, error)

	// List returns records created in [from, to), newest first, up to limit.
	List(ctx context.Context, from, to time.Time, limit int) ([]*auditDomain.Record, error)

	// CountBefore returns how many records were created before the cutoff.
	// Used by the retention command's dry-run mode.
	CountBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteBefore removes records created before the cutoff and returns how
	// many were removed. Retention only; verification never depends on it.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sink receives authorization verdicts. Implementations must be safe for
// concurrent use; emission failures are reported to the caller but must not
// flip an authorization verdict.
type Sink interface {
	// Emit signs the record and persists it.
	Emit(ctx context.Context, record *auditDomain.Record) error
}

// Reader exposes stored audit records for inspection.
type Reader interface {
	// Get retrieves a record by id.
	Get(ctx context.Context, id uuid.UUID) (*auditDomain.Record, error)

	// List returns records created in [from, to), newest first, up to limit.
	List(ctx context.Context, from, to time.Time, limit int) ([]*auditDomain.Record, error)
}

// VerifyResult summarizes an integrity sweep over stored records.
type VerifyResult struct {
	Checked  int
	Tampered []uuid.UUID
}

// Verifier re-checks stored record signatures. Used by the offline
// verification command.
type Verifier interface {
	VerifyRange(ctx context.Context, from, to time.Time, limit int) (*VerifyResult, error)
}
