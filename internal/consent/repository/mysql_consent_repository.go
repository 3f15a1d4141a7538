package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/moltid/authcore/internal/consent/domain"
	"github.com/moltid/authcore/internal/database"

	apperrors "github.com/moltid/authcore/internal/errors"
)

// MySQLConsentRepository handles consent token persistence for MySQL
type MySQLConsentRepository struct {
	db *sql.DB
}

// NewMySQLConsentRepository creates a new MySQLConsentRepository
func NewMySQLConsentRepository(db *sql.DB) *MySQLConsentRepository {
	return &MySQLConsentRepository{
		db: db,
	}
}

// Create stores a new consent token
func (r *MySQLConsentRepository) Create(ctx context.Context, token *domain.Token) error {
	querier := database.GetTx(ctx, r.db)

	typesJSON, err := encodeSubjectTypes(token)
	if err != nil {
		return err
	}

	query := `INSERT INTO consents (id, subject_types, granted_by, purpose, scope, expires, signature, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW())`

	_, err = querier.ExecContext(ctx, query,
		token.ID, typesJSON, token.GrantedBy, token.Purpose, token.Scope, token.Expires, token.Signature,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrTokenAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create consent token")
	}
	return nil
}

// Get retrieves a consent token by id
func (r *MySQLConsentRepository) Get(ctx context.Context, id string) (*domain.Token, error) {
	var (
		token     domain.Token
		typesJSON []byte
	)
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, subject_types, granted_by, purpose, scope, expires, signature
			  FROM consents WHERE id = ?`

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

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "error 1062")
}
