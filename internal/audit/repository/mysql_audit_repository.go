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

// MySQLAuditRepository handles audit record persistence for MySQL
type MySQLAuditRepository struct {
	db *sql.DB
}

// NewMySQLAuditRepository creates a new MySQLAuditRepository
func NewMySQLAuditRepository(db *sql.DB) *MySQLAuditRepository {
	return &MySQLAuditRepository{
		db: db,
	}
}

// Create stores a new audit record
func (r *MySQLAuditRepository) Create(ctx context.Context, record *domain.Record) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO audit_records (id, message_id, sender, operation, verdict,
				  reason_code, resolved_capability, created_at, signature)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	idBytes, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query,
		idBytes, record.MessageID, record.Sender, record.Operation, record.Verdict,
		record.ReasonCode, record.ResolvedCapability, record.CreatedAt, record.Signature,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit record")
	}
	return nil
}

// Get retrieves a record by id
func (r *MySQLAuditRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	var (
		record  domain.Record
		idBytes []byte
	)
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, message_id, sender, operation, verdict,
				  reason_code, resolved_capability, created_at, signature
			  FROM audit_records WHERE id = ?`

	queryID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	err = querier.QueryRowContext(ctx, query, queryID).Scan(
		&idBytes, &record.MessageID, &record.Sender, &record.Operation, &record.Verdict,
		&record.ReasonCode, &record.ResolvedCapability, &record.CreatedAt, &record.Signature,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get audit record")
	}

	if err := record.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	return &record, nil
}

// List returns records created in [from, to), newest first, up to limit
func (r *MySQLAuditRepository) List(ctx context.Context, from, to time.Time, limit int) ([]*domain.Record, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, message_id, sender, operation, verdict,
				  reason_code, resolved_capability, created_at, signature
			  FROM audit_records
			  WHERE created_at >= ? AND created_at < ?
			  ORDER BY created_at DESC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, from, to, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit records")
	}
	defer rows.Close()

	var records []*domain.Record
	for rows.Next() {
		var (
			record  domain.Record
			idBytes []byte
		)
		err := rows.Scan(
			&idBytes, &record.MessageID, &record.Sender, &record.Operation, &record.Verdict,
			&record.ReasonCode, &record.ResolvedCapability, &record.CreatedAt, &record.Signature,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit record")
		}
		if err := record.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit records")
	}

	return records, nil
}

// CountBefore returns how many records were created before the cutoff
func (r *MySQLAuditRepository) CountBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	var count int64
	err := querier.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_records WHERE created_at < ?`, cutoff,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count audit records")
	}

	return count, nil
}

// DeleteBefore removes records created before the cutoff
func (r *MySQLAuditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx,
		`DELETE FROM audit_records WHERE created_at < ?`, cutoff,
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
