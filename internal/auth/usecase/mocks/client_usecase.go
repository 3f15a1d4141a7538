// Package mocks provides mock implementations for testing CLI commands.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/moltid/authcore/internal/auth/domain"
)

// MockClientUseCase is a mock implementation of ClientUseCase for testing.
type MockClientUseCase struct {
	mock.Mock
}

// Create mocks the Create method of ClientUseCase.
func (m *MockClientUseCase) Create(
	ctx context.Context,
	createClientInput *authDomain.CreateClientInput,
) (*authDomain.CreateClientOutput, error) {
	args := m.Called(ctx, createClientInput)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.CreateClientOutput), args.Error(1)
}

// Update mocks the Update method of ClientUseCase.
func (m *MockClientUseCase) Update(
	ctx context.Context,
	clientID uuid.UUID,
	updateClientInput *authDomain.UpdateClientInput,
) error {
	args := m.Called(ctx, clientID, updateClientInput)
	return args.Error(0)
}

// Get mocks the Get method of ClientUseCase.
func (m *MockClientUseCase) Get(ctx context.Context, clientID uuid.UUID) (*authDomain.Client, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Client), args.Error(1)
}

// List mocks the List method of ClientUseCase.
func (m *MockClientUseCase) List(ctx context.Context, offset, limit int) ([]*authDomain.Client, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.Client), args.Error(1)
}

// Delete mocks the Delete method of ClientUseCase.
func (m *MockClientUseCase) Delete(ctx context.Context, clientID uuid.UUID) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}

// Unlock mocks the Unlock method of ClientUseCase.
func (m *MockClientUseCase) Unlock(ctx context.Context, clientID uuid.UUID) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}
