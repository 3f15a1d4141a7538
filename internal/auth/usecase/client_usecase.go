// Package usecase holds the management-plane client logic: the relay nodes
// and operator tools that call this service authenticate as clients with an
// id/secret pair and a policy document scoping what they may touch.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/moltid/authcore/internal/auth/domain"
	authService "github.com/moltid/authcore/internal/auth/service"
	"github.com/moltid/authcore/internal/database"
)

// clientUseCase manages the API clients (relay nodes, operator tooling)
// allowed to call the authorization endpoints.
type clientUseCase struct {
	txManager     database.TxManager
	clientRepo    ClientRepository
	secretService authService.SecretService
}

// Create registers a new API client with a generated secret. The plain
// secret is returned exactly once; only its Argon2id hash is stored.
func (c *clientUseCase) Create(
	ctx context.Context,
	createClientInput *authDomain.CreateClientInput,
) (*authDomain.CreateClientOutput, error) {
	plainSecret, hashedSecret, err := c.secretService.GenerateSecret()
	if err != nil {
		return nil, err
	}

	client := &authDomain.Client{
		ID:        uuid.Must(uuid.NewV7()),
		Secret:    hashedSecret,
		Name:      createClientInput.Name,
		IsActive:  createClientInput.IsActive,
		Policies:  createClientInput.Policies,
		CreatedAt: time.Now().UTC(),
	}

	if err := c.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}

	return &authDomain.CreateClientOutput{
		ID:          client.ID,
		PlainSecret: plainSecret,
	}, nil
}

// Update rewrites a client's name, active flag, and policy document. The
// secret and id never change; rotating a credential means a new client.
func (c *clientUseCase) Update(
	ctx context.Context,
	clientID uuid.UUID,
	updateClientInput *authDomain.UpdateClientInput,
) error {
	client, err := c.clientRepo.Get(ctx, clientID)
	if err != nil {
		return err
	}

	client.Name = updateClientInput.Name
	client.IsActive = updateClientInput.IsActive
	client.Policies = updateClientInput.Policies

	return c.clientRepo.Update(ctx, client)
}

// Get returns a client by id, ErrClientNotFound when absent.
func (c *clientUseCase) Get(ctx context.Context, clientID uuid.UUID) (*authDomain.Client, error) {
	return c.clientRepo.Get(ctx, clientID)
}

// Delete deactivates a client rather than removing the row: a relay that
// once held credentials stays visible to operators and audit queries.
func (c *clientUseCase) Delete(ctx context.Context, clientID uuid.UUID) error {
	client, err := c.clientRepo.Get(ctx, clientID)
	if err != nil {
		return err
	}

	client.IsActive = false
	return c.clientRepo.Update(ctx, client)
}

// List returns clients newest first with offset/limit pagination.
func (c *clientUseCase) List(ctx context.Context, offset, limit int) ([]*authDomain.Client, error) {
	return c.clientRepo.List(ctx, offset, limit)
}

// Unlock clears a client's lockout state after repeated failed token
// requests. Returns ErrClientNotFound if the client doesn't exist.
func (c *clientUseCase) Unlock(ctx context.Context, clientID uuid.UUID) error {
	if _, err := c.clientRepo.Get(ctx, clientID); err != nil {
		return err
	}
	return c.clientRepo.UpdateLockState(ctx, clientID, 0, nil)
}

// NewClientUseCase wires a ClientUseCase.
func NewClientUseCase(
	txManager database.TxManager,
	clientRepo ClientRepository,
	secretService authService.SecretService,
) ClientUseCase {
	return &clientUseCase{
		txManager:     txManager,
		clientRepo:    clientRepo,
		secretService: secretService,
	}
}
