package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/moltid/authcore/internal/auth/domain"
	"github.com/moltid/authcore/internal/database"
	apperrors "github.com/moltid/authcore/internal/errors"
)

// PostgreSQLTokenRepository implements Token persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLTokenRepository struct {
	db *sql.DB
}

// Create inserts a new Token into the PostgreSQL database. Uses transaction support
// via database.GetTx(). Returns an error if database insertion fails.
func (p *PostgreSQLTokenRepository) Create(ctx context.Context, token *authDomain.Token) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO tokens (id, token_hash, client_id, expires_at, revoked_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.TokenHash,
		token.ClientID,
		token.ExpiresAt,
		token.RevokedAt,
		token.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create token")
	}
	return nil
}

// Get retrieves a Token by ID from the PostgreSQL database. Uses transaction support
// via database.GetTx(). Returns ErrTokenNotFound if the token doesn't exist, or an error
// if database query fails.
func (p *PostgreSQLTokenRepository) Get(ctx context.Context, tokenID uuid.UUID) (*authDomain.Token, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, token_hash, client_id, expires_at, revoked_at, created_at
			  FROM tokens WHERE id = $1`

	return p.scanToken(querier.QueryRowContext(ctx, query, tokenID))
}

// GetByTokenHash retrieves a Token by its SHA-256 hash. The plaintext token is never
// stored, so bearer authentication looks up by hash. Returns ErrTokenNotFound if no
// token matches.
func (p *PostgreSQLTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.Token, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, token_hash, client_id, expires_at, revoked_at, created_at
			  FROM tokens WHERE token_hash = $1`

	return p.scanToken(querier.QueryRowContext(ctx, query, tokenHash))
}

// Revoke marks a token as revoked by setting its revoked_at timestamp. Returns
// ErrTokenNotFound if the token doesn't exist.
func (p *PostgreSQLTokenRepository) Revoke(ctx context.Context, tokenID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE tokens SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, tokenID)
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke token")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check revoke result")
	}
	if affected == 0 {
		return authDomain.ErrTokenNotFound
	}
	return nil
}

// DeleteExpired removes tokens whose expiry is before the cutoff. Returns the number
// of tokens deleted.
func (p *PostgreSQLTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM tokens WHERE expires_at < $1`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired tokens")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count deleted tokens")
	}
	return affected, nil
}

func (p *PostgreSQLTokenRepository) scanToken(row *sql.Row) (*authDomain.Token, error) {
	var token authDomain.Token

	err := row.Scan(
		&token.ID,
		&token.TokenHash,
		&token.ClientID,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get token")
	}

	return &token, nil
}

// NewPostgreSQLTokenRepository creates a new PostgreSQL Token repository.
func NewPostgreSQLTokenRepository(db *sql.DB) *PostgreSQLTokenRepository {
	return &PostgreSQLTokenRepository{db: db}
}
