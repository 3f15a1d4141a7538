package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/moltid/authcore/internal/database"
	"github.com/moltid/authcore/internal/delegation/domain"

	apperrors "github.com/moltid/authcore/internal/errors"
)

// MySQLTokenRepository handles delegation token persistence for MySQL
type MySQLTokenRepository struct {
	db *sql.DB
}

// NewMySQLTokenRepository creates a new MySQLTokenRepository
func NewMySQLTokenRepository(db *sql.DB) *MySQLTokenRepository {
	return &MySQLTokenRepository{
		db: db,
	}
}

// Create stores a new token
func (r *MySQLTokenRepository) Create(ctx context.Context, token *domain.Token) error {
	querier := database.GetTx(ctx, r.db)

	capabilitiesJSON, proofJSON, err := encodeTokenColumns(token)
	if err != nil {
		return err
	}

	query := `INSERT INTO delegations (id, issuer, audience, capabilities, proof_chain,
				  not_before, expires, max_uses, allow_delegation, signature, uses, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NOW())`

	_, err = querier.ExecContext(ctx, query,
		token.ID, token.Issuer, token.Audience, capabilitiesJSON, proofJSON,
		token.NotBefore, token.Expires, token.MaxUses, token.Policy.AllowDelegation, token.Signature,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrTokenAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create delegation token")
	}
	return nil
}

// Get retrieves a token by id
func (r *MySQLTokenRepository) Get(ctx context.Context, id string) (*domain.Token, error) {
	var (
		token            domain.Token
		capabilitiesJSON []byte
		proofJSON        []byte
	)
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, issuer, audience, capabilities, proof_chain,
				  not_before, expires, max_uses, allow_delegation, signature
			  FROM delegations WHERE id = ?`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&token.ID, &token.Issuer, &token.Audience, &capabilitiesJSON, &proofJSON,
		&token.NotBefore, &token.Expires, &token.MaxUses, &token.Policy.AllowDelegation, &token.Signature,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get delegation token")
	}

	if err := decodeTokenColumns(&token, capabilitiesJSON, proofJSON); err != nil {
		return nil, err
	}
	return &token, nil
}

// Usage returns the token's usage counter
func (r *MySQLTokenRepository) Usage(ctx context.Context, id string) (int64, error) {
	var uses int64
	querier := database.GetTx(ctx, r.db)

	query := `SELECT uses FROM delegations WHERE id = ?`

	err := querier.QueryRowContext(ctx, query, id).Scan(&uses)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrTokenNotFound
		}
		return 0, apperrors.Wrap(err, "failed to get delegation usage")
	}
	return uses, nil
}

// RecordUse atomically increments the token's usage counter
func (r *MySQLTokenRepository) RecordUse(ctx context.Context, id string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE delegations SET uses = uses + 1 WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to record delegation use")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check delegation use result")
	}
	if rows == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

// DeleteExpired removes tokens whose expiry is before the cutoff
func (r *MySQLTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM delegations WHERE expires < ?`

	result, err := querier.ExecContext(ctx, query, cutoff.UnixMilli())
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired delegations")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count deleted delegations")
	}
	return rows, nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "error 1062")
}
