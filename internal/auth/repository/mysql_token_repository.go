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

// MySQLTokenRepository implements Token persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLTokenRepository struct {
	db *sql.DB
}

// Create inserts a new Token into the MySQL database using BINARY(16) for UUIDs.
// Uses transaction support via database.GetTx(). Returns an error if UUID marshaling
// or database insertion fails.
func (m *MySQLTokenRepository) Create(ctx context.Context, token *authDomain.Token) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO tokens (id, token_hash, client_id, expires_at, revoked_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	id, err := token.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal token id")
	}

	clientID, err := token.ClientID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal client id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		token.TokenHash,
		clientID,
		token.ExpiresAt,
		token.RevokedAt,
		token.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create token")
	}
	return nil
}

// Get retrieves a Token by ID from the MySQL database using BINARY(16) for UUIDs.
// Returns ErrTokenNotFound if the token doesn't exist.
func (m *MySQLTokenRepository) Get(ctx context.Context, tokenID uuid.UUID) (*authDomain.Token, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := tokenID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal token id")
	}

	query := `SELECT id, token_hash, client_id, expires_at, revoked_at, created_at
			  FROM tokens WHERE id = ?`

	return m.scanToken(querier.QueryRowContext(ctx, query, id))
}

// GetByTokenHash retrieves a Token by its SHA-256 hash. The plaintext token is never
// stored, so bearer authentication looks up by hash. Returns ErrTokenNotFound if no
// token matches.
func (m *MySQLTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.Token, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, token_hash, client_id, expires_at, revoked_at, created_at
			  FROM tokens WHERE token_hash = ?`

	return m.scanToken(querier.QueryRowContext(ctx, query, tokenHash))
}

// Revoke marks a token as revoked by setting its revoked_at timestamp. Returns
// ErrTokenNotFound if the token doesn't exist.
func (m *MySQLTokenRepository) Revoke(ctx context.Context, tokenID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	id, err := tokenID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal token id")
	}

	query := `UPDATE tokens SET revoked_at = NOW() WHERE id = ? AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, id)
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
func (m *MySQLTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM tokens WHERE expires_at < ?`

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

func (m *MySQLTokenRepository) scanToken(row *sql.Row) (*authDomain.Token, error) {
	var token authDomain.Token
	var idBytes []byte
	var clientIDBytes []byte

	err := row.Scan(
		&idBytes,
		&token.TokenHash,
		&clientIDBytes,
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

	if err := token.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal token id")
	}
	if err := token.ClientID.UnmarshalBinary(clientIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal client id")
	}

	return &token, nil
}

// NewMySQLTokenRepository creates a new MySQL Token repository.
func NewMySQLTokenRepository(db *sql.DB) *MySQLTokenRepository {
	return &MySQLTokenRepository{db: db}
}
