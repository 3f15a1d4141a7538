// Package repository provides data persistence implementations for
// revocation records.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/moltid/authcore/internal/database"
	"github.com/moltid/authcore/internal/revocation/domain"

	apperrors "github.com/moltid/authcore/internal/errors"
)

// PostgreSQLRevocationRepository handles revocation persistence for PostgreSQL
type PostgreSQLRevocationRepository struct {
	db *sql.DB
}

// NewPostgreSQLRevocationRepository creates a new PostgreSQLRevocationRepository
func NewPostgreSQLRevocationRepository(db *sql.DB) *PostgreSQLRevocationRepository {
	return &PostgreSQLRevocationRepository{
		db: db,
	}
}

// Create appends a revocation record. A duplicate subject id is treated as
// success: revocation is idempotent and never un-done.
func (r *PostgreSQLRevocationRepository) Create(ctx context.Context, record *domain.Record) error {
	querier := database.GetTx(ctx, r.db)

	recoveryJSON, err := encodeRecoverySignatures(record)
	if err != nil {
		return err
	}

	query := `INSERT INTO revocations (id, subject_id, subject_kind, revoked_at, reason,
				  authority_signature, recovery_signatures, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  ON CONFLICT (subject_id) DO NOTHING`

	_, err = querier.ExecContext(ctx, query,
		record.ID, record.SubjectID, record.SubjectKind, record.RevokedAt, record.Reason,
		record.AuthoritySignature, recoveryJSON, record.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create revocation record")
	}
	return nil
}

// Get retrieves the record for a subject id
func (r *PostgreSQLRevocationRepository) Get(ctx context.Context, subjectID string) (*domain.Record, error) {
	var (
		record       domain.Record
		recoveryJSON []byte
	)
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, subject_id, subject_kind, revoked_at, reason,
				  authority_signature, recovery_signatures, created_at
			  FROM revocations WHERE subject_id = $1`

	err := querier.QueryRowContext(ctx, query, subjectID).Scan(
		&record.ID, &record.SubjectID, &record.SubjectKind, &record.RevokedAt, &record.Reason,
		&record.AuthoritySignature, &recoveryJSON, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get revocation record")
	}

	if len(recoveryJSON) > 0 {
		if err := json.Unmarshal(recoveryJSON, &record.RecoverySignatures); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode recovery signatures")
		}
	}

	return &record, nil
}

// Exists reports whether a record exists for the subject id
func (r *PostgreSQLRevocationRepository) Exists(ctx context.Context, subjectID string) (bool, error) {
	var exists bool
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS (SELECT 1 FROM revocations WHERE subject_id = $1)`

	if err := querier.QueryRowContext(ctx, query, subjectID).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check revocation")
	}
	return exists, nil
}

func encodeRecoverySignatures(record *domain.Record) ([]byte, error) {
	sigs := record.RecoverySignatures
	if sigs == nil {
		sigs = []string{}
	}
	recoveryJSON, err := json.Marshal(sigs)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode recovery signatures")
	}
	return recoveryJSON, nil
}
