// Package mocks provides testify mocks for the database package.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
)

// MockTxManager is a testify mock for database.TxManager. When WithTx is
// expected to succeed, the callback runs against the plain context so the
// code under test behaves as if no transaction was open.
type MockTxManager struct {
	mock.Mock
}

// NewMockTxManager creates a MockTxManager whose expectations are asserted
// at test cleanup.
func NewMockTxManager(t *testing.T) *MockTxManager {
	t.Helper()
	m := &MockTxManager{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// WithTx executes fn directly when the mocked return is nil.
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}
