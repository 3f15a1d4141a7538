package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/moltid/authcore/internal/database"
	"github.com/moltid/authcore/internal/revocation/domain"

	apperrors "github.com/moltid/authcore/internal/errors"
)

// MySQLRevocationRepository handles revocation persistence for MySQL
type MySQLRevocationRepository struct {
	db *sql.DB
}

// NewMySQLRevocationRepository creates a new MySQLRevocationRepository
func NewMySQLRevocationRepository(db *sql.DB) *MySQLRevocationRepository {
	return &MySQLRevocationRepository{
		db: db,
	}
}

// Create appends a revocation record. A duplicate subject id is treated as
// success: revocation is idempotent and never un-done.
func (r *MySQLRevocationRepository) Create(ctx context.Context, record *domain.Record) error {
	querier := database.GetTx(ctx, r.db)

	recoveryJSON, err := encodeRecoverySignatures(record)
	if err != nil {
		return err
	}

	query := `INSERT INTO revocations (id, subject_id, subject_kind, revoked_at, reason,
				  authority_signature, recovery_signatures, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	idBytes, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query,
		idBytes, record.SubjectID, record.SubjectKind, record.RevokedAt, record.Reason,
		record.AuthoritySignature, recoveryJSON, record.CreatedAt,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return nil
		}
		return apperrors.Wrap(err, "failed to create revocation record")
	}
	return nil
}

// Get retrieves the record for a subject id
func (r *MySQLRevocationRepository) Get(ctx context.Context, subjectID string) (*domain.Record, error) {
	var (
		record       domain.Record
		idBytes      []byte
		recoveryJSON []byte
	)
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, subject_id, subject_kind, revoked_at, reason,
				  authority_signature, recovery_signatures, created_at
			  FROM revocations WHERE subject_id = ?`

	err := querier.QueryRowContext(ctx, query, subjectID).Scan(
		&idBytes, &record.SubjectID, &record.SubjectKind, &record.RevokedAt, &record.Reason,
		&record.AuthoritySignature, &recoveryJSON, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get revocation record")
	}

	if err := record.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	if len(recoveryJSON) > 0 {
		if err := json.Unmarshal(recoveryJSON, &record.RecoverySignatures); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode recovery signatures")
		}
	}

	return &record, nil
}

// Exists reports whether a record exists for the subject id
func (r *MySQLRevocationRepository) Exists(ctx context.Context, subjectID string) (bool, error) {
	var exists bool
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS (SELECT 1 FROM revocations WHERE subject_id = ?)`

	if err := querier.QueryRowContext(ctx, query, subjectID).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check revocation")
	}
	return exists, nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "error 1062")
}
