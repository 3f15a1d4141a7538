// Package repository provides data persistence implementations for
// delegation tokens.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/moltid/authcore/internal/capability"
	"github.com/moltid/authcore/internal/database"
	"github.com/moltid/authcore/internal/delegation/domain"

	apperrors "github.com/moltid/authcore/internal/errors"
)

// PostgreSQLTokenRepository handles delegation token persistence for PostgreSQL
type PostgreSQLTokenRepository struct {
	db *sql.DB
}

// NewPostgreSQLTokenRepository creates a new PostgreSQLTokenRepository
func NewPostgreSQLTokenRepository(db *sql.DB) *PostgreSQLTokenRepository {
	return &PostgreSQLTokenRepository{
		db: db,
	}
}

// Create stores a new token
func (r *PostgreSQLTokenRepository) Create(ctx context.Context, token *domain.Token) error {
	querier := database.GetTx(ctx, r.db)

	capabilitiesJSON, proofJSON, err := encodeTokenColumns(token)
	if err != nil {
		return err
	}

	query := `INSERT INTO delegations (id, issuer, audience, capabilities, proof_chain,
				  not_before, expires, max_uses, allow_delegation, signature, uses, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, NOW())`

	_, err = querier.ExecContext(ctx, query,
		token.ID, token.Issuer, token.Audience, capabilitiesJSON, proofJSON,
		token.NotBefore, token.Expires, token.MaxUses, token.Policy.AllowDelegation, token.Signature,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrTokenAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create delegation token")
	}
	return nil
}

// Get retrieves a token by id
func (r *PostgreSQLTokenRepository) Get(ctx context.Context, id string) (*domain.Token, error) {
	var (
		token            domain.Token
		capabilitiesJSON []byte
		proofJSON        []byte
	)
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, issuer, audience, capabilities, proof_chain,
				  not_before, expires, max_uses, allow_delegation, signature
			  FROM delegations WHERE id = $1`

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
func (r *PostgreSQLTokenRepository) Usage(ctx context.Context, id string) (int64, error) {
	var uses int64
	querier := database.GetTx(ctx, r.db)

	query := `SELECT uses FROM delegations WHERE id = $1`

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
func (r *PostgreSQLTokenRepository) RecordUse(ctx context.Context, id string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE delegations SET uses = uses + 1 WHERE id = $1`

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
func (r *PostgreSQLTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM delegations WHERE expires < $1`

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

func encodeTokenColumns(token *domain.Token) ([]byte, []byte, error) {
	caps := token.Capabilities
	if caps == nil {
		caps = []capability.Capability{}
	}
	capabilitiesJSON, err := json.Marshal(caps)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to encode capabilities")
	}

	proof := token.ProofChain
	if proof == nil {
		proof = []string{}
	}
	proofJSON, err := json.Marshal(proof)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to encode proof chain")
	}

	return capabilitiesJSON, proofJSON, nil
}

func decodeTokenColumns(token *domain.Token, capabilitiesJSON, proofJSON []byte) error {
	if len(capabilitiesJSON) > 0 {
		if err := json.Unmarshal(capabilitiesJSON, &token.Capabilities); err != nil {
			return apperrors.Wrap(err, "failed to decode capabilities")
		}
	}
	if len(proofJSON) > 0 {
		var proof []string
		if err := json.Unmarshal(proofJSON, &proof); err != nil {
			return apperrors.Wrap(err, "failed to decode proof chain")
		}
		if len(proof) > 0 {
			token.ProofChain = proof
		}
	}
	return nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
