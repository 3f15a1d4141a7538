// Package repository provides data persistence implementations for agent
// records and their key history.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/moltid/authcore/internal/capability"
	"github.com/moltid/authcore/internal/database"
	"github.com/moltid/authcore/internal/identity/domain"

	apperrors "github.com/moltid/authcore/internal/errors"
)

// PostgreSQLAgentRepository handles agent persistence for PostgreSQL
type PostgreSQLAgentRepository struct {
	db *sql.DB
}

// NewPostgreSQLAgentRepository creates a new PostgreSQLAgentRepository
func NewPostgreSQLAgentRepository(db *sql.DB) *PostgreSQLAgentRepository {
	return &PostgreSQLAgentRepository{
		db: db,
	}
}

// Create inserts a new agent
func (r *PostgreSQLAgentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	querier := database.GetTx(ctx, r.db)

	capabilitiesJSON, recoveryJSON, err := encodeAgentColumns(agent)
	if err != nil {
		return err
	}

	query := `INSERT INTO agents (id, did, name, org, public_key, is_active, root_capabilities,
				  recovery_keys, recovery_threshold, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = querier.ExecContext(ctx, query,
		agent.ID, agent.DID, agent.Name, agent.Org, agent.PublicKey, agent.IsActive,
		capabilitiesJSON, recoveryJSON, agent.RecoveryThreshold, agent.CreatedAt, agent.UpdatedAt,
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrAgentAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create agent")
	}
	return nil
}

// Update modifies an existing agent
func (r *PostgreSQLAgentRepository) Update(ctx context.Context, agent *domain.Agent) error {
	querier := database.GetTx(ctx, r.db)

	capabilitiesJSON, recoveryJSON, err := encodeAgentColumns(agent)
	if err != nil {
		return err
	}

	query := `UPDATE agents SET name = $1, org = $2, public_key = $3, is_active = $4,
				  root_capabilities = $5, recovery_keys = $6, recovery_threshold = $7, updated_at = $8
			  WHERE id = $9`

	result, err := querier.ExecContext(ctx, query,
		agent.Name, agent.Org, agent.PublicKey, agent.IsActive,
		capabilitiesJSON, recoveryJSON, agent.RecoveryThreshold, agent.UpdatedAt, agent.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update agent")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if rows == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

// Get retrieves an agent by ID
func (r *PostgreSQLAgentRepository) Get(ctx context.Context, agentID uuid.UUID) (*domain.Agent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, did, name, org, public_key, is_active, root_capabilities,
				  recovery_keys, recovery_threshold, created_at, updated_at
			  FROM agents WHERE id = $1`

	return scanAgent(querier.QueryRowContext(ctx, query, agentID))
}

// GetByDID retrieves an agent by its DID
func (r *PostgreSQLAgentRepository) GetByDID(ctx context.Context, did string) (*domain.Agent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, did, name, org, public_key, is_active, root_capabilities,
				  recovery_keys, recovery_threshold, created_at, updated_at
			  FROM agents WHERE did = $1`

	return scanAgent(querier.QueryRowContext(ctx, query, did))
}

// CreateKey inserts a key history record
func (r *PostgreSQLAgentRepository) CreateKey(ctx context.Context, key *domain.AgentKey) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO agent_keys (id, agent_id, public_key, status, created_at, superseded_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(ctx, query,
		key.ID, key.AgentID, key.PublicKey, key.Status, key.CreatedAt, key.SupersededAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create agent key")
	}
	return nil
}

// GetKey retrieves a key record by its wire-form public key
func (r *PostgreSQLAgentRepository) GetKey(ctx context.Context, publicKey string) (*domain.AgentKey, error) {
	var key domain.AgentKey
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, agent_id, public_key, status, created_at, superseded_at
			  FROM agent_keys WHERE public_key = $1`

	err := querier.QueryRowContext(ctx, query, publicKey).Scan(
		&key.ID, &key.AgentID, &key.PublicKey, &key.Status, &key.CreatedAt, &key.SupersededAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get agent key")
	}

	return &key, nil
}

// SupersedeKey marks the agent's current key superseded
func (r *PostgreSQLAgentRepository) SupersedeKey(ctx context.Context, agentID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE agent_keys SET status = $1, superseded_at = NOW()
			  WHERE agent_id = $2 AND status = $3`

	_, err := querier.ExecContext(ctx, query,
		domain.KeyStatusSuperseded, agentID, domain.KeyStatusCurrent,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to supersede agent key")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*domain.Agent, error) {
	var (
		agent            domain.Agent
		capabilitiesJSON []byte
		recoveryJSON     []byte
	)

	err := row.Scan(
		&agent.ID, &agent.DID, &agent.Name, &agent.Org, &agent.PublicKey, &agent.IsActive,
		&capabilitiesJSON, &recoveryJSON, &agent.RecoveryThreshold, &agent.CreatedAt, &agent.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get agent")
	}

	if len(capabilitiesJSON) > 0 {
		if err := json.Unmarshal(capabilitiesJSON, &agent.RootCapabilities); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode root capabilities")
		}
	}
	if len(recoveryJSON) > 0 {
		if err := json.Unmarshal(recoveryJSON, &agent.RecoveryKeys); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode recovery keys")
		}
	}

	return &agent, nil
}

func encodeAgentColumns(agent *domain.Agent) ([]byte, []byte, error) {
	caps := agent.RootCapabilities
	if caps == nil {
		caps = []capability.Capability{}
	}
	capabilitiesJSON, err := json.Marshal(caps)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to encode root capabilities")
	}

	keys := agent.RecoveryKeys
	if keys == nil {
		keys = []string{}
	}
	recoveryJSON, err := json.Marshal(keys)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to encode recovery keys")
	}

	return capabilitiesJSON, recoveryJSON, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
