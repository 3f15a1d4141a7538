// Package repository provides data persistence implementations for audit
// records.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/moltid/authcore/internal/audit/domain"
	"github.com/moltid/authcore/internal/database"

	apperrors "github.com/moltid/authcore/internal/errors"
)

// PostgreSQLAuditRepository handles audit record persistence for PostgreSQL
type PostgreSQLAuditRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditRepository creates a new PostgreSQLAuditRepository
func NewPostgreSQLAuditRepository(db *sql.DB) *PostgreSQLAuditRepository {
	return &PostgreSQLAuditRepository{
		db: db,
	}
}

// Create stores a new audit record
func (r *PostgreSQLAuditRepository) Create(ctx context.Context, record *domain.Record) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO audit_records (id, message_id, sender, operation, verdict,
				  reason_code, resolved_capability, created_at, signature)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(ctx, query,
		record.ID, record.MessageID, record.Sender, record.Operation, record.Verdict,
		record.ReasonCode, record.ResolvedCapability, record.CreatedAt, record.Signature,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit record")
	}
	return nil
}

// Get retrieves a record by id
func (r *PostgreSQLAuditRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	var record domain.Record
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, message_id, sender, operation, verdict,
				  reason_code, resolved_capability, created_at, signature
			  FROM audit_records WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&record.ID, &record.MessageID, &record.Sender, &record.Operation, &record.Verdict,
		&record.ReasonCode, &record.ResolvedCapability, &record.CreatedAt, &record.Signature,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get audit record")
	}

	return &record, nil
}

// List returns records created in [from, to), newest first, up to limit
func (r *PostgreSQLAuditRepository) List(ctx context.Context, from, to time.Time, limit int) ([]*domain.Record, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, message_id, sender, operation, verdict,
				  reason_code, resolved_capability, created_at, signature
			  FROM audit_records
			  WHERE created_at >= $1 AND created_at < $2
			  ORDER BY created_at DESC
			  LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, from, to, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit records")
	}
	defer rows.Close()

	var records []*domain.Record
	for rows.Next() {
		var record domain.Record
		err := rows.Scan(
			&record.ID, &record.MessageID, &record.Sender, &record.Operation, &record.Verdict,
			&record.ReasonCode, &record.ResolvedCapability, &record.CreatedAt, &record.Signature,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit record")
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit records")
	}

	return records, nil
}

// CountBefore returns how many records were created before the cutoff
func (r *PostgreSQLAuditRepository) CountBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	var count int64
	err := querier.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_records WHERE created_at < $1`, cutoff,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count audit records")
	}

	return count, nil
}

// DeleteBefore removes records created before the cutoff
func (r *PostgreSQLAuditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx,
		`DELETE FROM audit_records WHERE created_at < $1`, cutoff,
	)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete audit records")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}

	return deleted, nil
}
