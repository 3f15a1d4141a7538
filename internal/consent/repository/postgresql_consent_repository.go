// Package repository provides data persistence implementations for consent
// tokens.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/moltid/authcore/internal/consent/domain"
	"github.com/moltid/authcore/internal/database"
	"github.com/moltid/authcore/internal/pii"

	apperrors "github.com/moltid/authcore/internal/errors"
)

// PostgreSQLConsentRepository handles consent token persistence for PostgreSQL
type PostgreSQLConsentRepository struct {
	db *sql.DB
}

// NewPostgreSQLConsentRepository creates a new PostgreSQLConsentRepository
func NewPostgreSQLConsentRepository(db *sql.DB) *PostgreSQLConsentRepository {
	return &PostgreSQLConsentRepository{
		db: db,
	}
}

// Create stores a new consent token
func (r *PostgreSQLConsentRepository) Create(ctx context.Context, token *domain.Token) error {
	querier := database.GetTx(ctx, r.db)

	typesJSON, err := encodeSubjectTypes(token)
	if err != nil {
		return err
	}

	query := `INSERT INTO consents (id, subject_types, granted_by, purpose, scope, expires, signature, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`

	_, err = querier.ExecContext(ctx, query,
		token.ID, typesJSON, token.GrantedBy, token.Purpose, token.Scope, token.Expires, token.Signature,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrTokenAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create consent token")
	}
	return nil
}

// Get retrieves a consent token by id
func (r *PostgreSQLConsentRepository) Get(ctx context.Context, id string) (*domain.Token, error) {
	var (
		token     domain.Token
		typesJSON []byte
	)
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, subject_types, granted_by, purpose, scope, expires, signature
			  FROM consents WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&token.ID, &typesJSON, &token.GrantedBy, &token.Purpose, &token.Scope, &token.Expires, &token.Signature,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get consent token")
	}

	if len(typesJSON) > 0 {
		if err := json.Unmarshal(typesJSON, &token.SubjectTypes); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode subject types")
		}
	}

	return &token, nil
}

func encodeSubjectTypes(token *domain.Token) ([]byte, error) {
	types := token.SubjectTypes
	if types == nil {
		types = []pii.Type{}
	}
	typesJSON, err := json.Marshal(types)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode subject types")
	}
	return typesJSON, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
