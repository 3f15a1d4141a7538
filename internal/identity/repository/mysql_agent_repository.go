package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/moltid/authcore/internal/database"
	"github.com/moltid/authcore/internal/identity/domain"

	apperrors "github.com/moltid/authcore/internal/errors"
)

// MySQLAgentRepository handles agent persistence for MySQL
type MySQLAgentRepository struct {
	db *sql.DB
}

// NewMySQLAgentRepository creates a new MySQLAgentRepository
func NewMySQLAgentRepository(db *sql.DB) *MySQLAgentRepository {
	return &MySQLAgentRepository{
		db: db,
	}
}

// Create inserts a new agent
func (r *MySQLAgentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	querier := database.GetTx(ctx, r.db)

	capabilitiesJSON, recoveryJSON, err := encodeAgentColumns(agent)
	if err != nil {
		return err
	}

	query := `INSERT INTO agents (id, did, name, org, public_key, is_active, root_capabilities,
				  recovery_keys, recovery_threshold, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	// Convert UUID to bytes for MySQL BINARY(16)
	uuidBytes, err := agent.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query,
		uuidBytes, agent.DID, agent.Name, agent.Org, agent.PublicKey, agent.IsActive,
		capabilitiesJSON, recoveryJSON, agent.RecoveryThreshold, agent.CreatedAt, agent.UpdatedAt,
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrAgentAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create agent")
	}
	return nil
}

// Update modifies an existing agent
func (r *MySQLAgentRepository) Update(ctx context.Context, agent *domain.Agent) error {
	querier := database.GetTx(ctx, r.db)

	capabilitiesJSON, recoveryJSON, err := encodeAgentColumns(agent)
	if err != nil {
		return err
	}

	query := `UPDATE agents SET name = ?, org = ?, public_key = ?, is_active = ?,
				  root_capabilities = ?, recovery_keys = ?, recovery_threshold = ?, updated_at = ?
			  WHERE id = ?`

	uuidBytes, err := agent.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	result, err := querier.ExecContext(ctx, query,
		agent.Name, agent.Org, agent.PublicKey, agent.IsActive,
		capabilitiesJSON, recoveryJSON, agent.RecoveryThreshold, agent.UpdatedAt, uuidBytes,
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
func (r *MySQLAgentRepository) Get(ctx context.Context, agentID uuid.UUID) (*domain.Agent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, did, name, org, public_key, is_active, root_capabilities,
				  recovery_keys, recovery_threshold, created_at, updated_at
			  FROM agents WHERE id = ?`

	uuidBytes, err := agentID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal UUID")
	}

	return scanMySQLAgent(querier.QueryRowContext(ctx, query, uuidBytes))
}

// GetByDID retrieves an agent by its DID
func (r *MySQLAgentRepository) GetByDID(ctx context.Context, did string) (*domain.Agent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, did, name, org, public_key, is_active, root_capabilities,
				  recovery_keys, recovery_threshold, created_at, updated_at
			  FROM agents WHERE did = ?`

	return scanMySQLAgent(querier.QueryRowContext(ctx, query, did))
}

// CreateKey inserts a key history record
func (r *MySQLAgentRepository) CreateKey(ctx context.Context, key *domain.AgentKey) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO agent_keys (id, agent_id, public_key, status, created_at, superseded_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	idBytes, err := key.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}
	agentIDBytes, err := key.AgentID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query,
		idBytes, agentIDBytes, key.PublicKey, key.Status, key.CreatedAt, key.SupersededAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create agent key")
	}
	return nil
}

// GetKey retrieves a key record by its wire-form public key
func (r *MySQLAgentRepository) GetKey(ctx context.Context, publicKey string) (*domain.AgentKey, error) {
	var key domain.AgentKey
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, agent_id, public_key, status, created_at, superseded_at
			  FROM agent_keys WHERE public_key = ?`

	var idBytes, agentIDBytes []byte
	err := querier.QueryRowContext(ctx, query, publicKey).Scan(
		&idBytes, &agentIDBytes, &key.PublicKey, &key.Status, &key.CreatedAt, &key.SupersededAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get agent key")
	}

	if err := key.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}
	if err := key.AgentID.UnmarshalBinary(agentIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
	}

	return &key, nil
}

// SupersedeKey marks the agent's current key superseded
func (r *MySQLAgentRepository) SupersedeKey(ctx context.Context, agentID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE agent_keys SET status = ?, superseded_at = NOW()
			  WHERE agent_id = ? AND status = ?`

	agentIDBytes, err := agentID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal UUID")
	}

	_, err = querier.ExecContext(ctx, query,
		domain.KeyStatusSuperseded, agentIDBytes, domain.KeyStatusCurrent,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to supersede agent key")
	}
	return nil
}

func scanMySQLAgent(row rowScanner) (*domain.Agent, error) {
	var (
		agent            domain.Agent
		idBytes          []byte
		capabilitiesJSON []byte
		recoveryJSON     []byte
	)

	err := row.Scan(
		&idBytes, &agent.DID, &agent.Name, &agent.Org, &agent.PublicKey, &agent.IsActive,
		&capabilitiesJSON, &recoveryJSON, &agent.RecoveryThreshold, &agent.CreatedAt, &agent.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get agent")
	}

	if err := agent.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal UUID")
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

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "error 1062")
}
