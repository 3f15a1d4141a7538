// Package repository implements data persistence for API authentication
// entities.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.GetTx(). PostgreSQL uses native UUID types, MySQL uses BINARY(16)
// types. Policy documents are stored as JSON columns.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/moltid/authcore/internal/auth/domain"
	"github.com/moltid/authcore/internal/database"
	apperrors "github.com/moltid/authcore/internal/errors"
)

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanClient scans a client row, decoding the policies JSON column.
func scanClient(row rowScanner) (*authDomain.Client, error) {
	var client authDomain.Client
	var policiesJSON []byte

	err := row.Scan(
		&client.ID,
		&client.Secret,
		&client.Name,
		&client.IsActive,
		&policiesJSON,
		&client.FailedAttempts,
		&client.LockedUntil,
		&client.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(policiesJSON, &client.Policies); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode client policies")
	}
	return &client, nil
}

func encodePolicies(policies []authDomain.PolicyDocument) ([]byte, error) {
	if policies == nil {
		policies = []authDomain.PolicyDocument{}
	}
	encoded, err := json.Marshal(policies)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode client policies")
	}
	return encoded, nil
}

// PostgreSQLClientRepository implements Client persistence for PostgreSQL.
type PostgreSQLClientRepository struct {
	db *sql.DB
}

// Create inserts a new Client into the PostgreSQL database.
func (p *PostgreSQLClientRepository) Create(ctx context.Context, client *authDomain.Client) error {
	querier := database.GetTx(ctx, p.db)

	policiesJSON, err := encodePolicies(client.Policies)
	if err != nil {
		return err
	}

	query := `INSERT INTO clients (id, secret, name, is_active, policies, failed_attempts, locked_until, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = querier.ExecContext(
		ctx,
		query,
		client.ID,
		client.Secret,
		client.Name,
		client.IsActive,
		policiesJSON,
		client.FailedAttempts,
		client.LockedUntil,
		client.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create client")
	}
	return nil
}

// Update modifies an existing Client in the PostgreSQL database.
func (p *PostgreSQLClientRepository) Update(ctx context.Context, client *authDomain.Client) error {
	querier := database.GetTx(ctx, p.db)

	policiesJSON, err := encodePolicies(client.Policies)
	if err != nil {
		return err
	}

	query := `UPDATE clients
			  SET secret = $1,
				  name = $2,
				  is_active = $3,
				  policies = $4
			  WHERE id = $5`

	result, err := querier.ExecContext(
		ctx,
		query,
		client.Secret,
		client.Name,
		client.IsActive,
		policiesJSON,
		client.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update client")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to update client")
	}
	if rows == 0 {
		return authDomain.ErrClientNotFound
	}
	return nil
}

// Get retrieves a Client by ID from the PostgreSQL database.
func (p *PostgreSQLClientRepository) Get(
	ctx context.Context,
	clientID uuid.UUID,
) (*authDomain.Client, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, secret, name, is_active, policies, failed_attempts, locked_until, created_at
			  FROM clients WHERE id = $1`

	client, err := scanClient(querier.QueryRowContext(ctx, query, clientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrClientNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get client")
	}
	return client, nil
}

// List retrieves clients ordered by ID descending with pagination.
func (p *PostgreSQLClientRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*authDomain.Client, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, secret, name, is_active, policies, failed_attempts, locked_until, created_at
			  FROM clients ORDER BY id DESC OFFSET $1 LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list clients")
	}
	defer rows.Close()

	var clients []*authDomain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan client")
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list clients")
	}
	return clients, nil
}

// UpdateLockState sets the failed-attempt counter and lockout expiry.
func (p *PostgreSQLClientRepository) UpdateLockState(
	ctx context.Context,
	clientID uuid.UUID,
	failedAttempts int,
	lockedUntil *time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE clients SET failed_attempts = $1, locked_until = $2 WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, failedAttempts, lockedUntil, clientID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update client lock state")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to update client lock state")
	}
	if rows == 0 {
		return authDomain.ErrClientNotFound
	}
	return nil
}

// NewPostgreSQLClientRepository creates a new PostgreSQL Client repository.
func NewPostgreSQLClientRepository(db *sql.DB) *PostgreSQLClientRepository {
	return &PostgreSQLClientRepository{db: db}
}
