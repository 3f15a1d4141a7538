package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/moltid/authcore/internal/audit/domain"
)

// MockAuditRepository is a mock implementation of the audit repository.
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, record *auditDomain.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAuditRepository) Get(ctx context.Context, id uuid.UUID) (*auditDomain.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.Record), args.Error(1)
}

func (m *MockAuditRepository) List(
	ctx context.Context,
	from, to time.Time,
	limit int,
) ([]*auditDomain.Record, error) {
	args := m.Called(ctx, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.Record), args.Error(1)
}

func (m *MockAuditRepository) CountBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestRunCleanAuditRecords(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("delete", func(t *testing.T) {
		repo := &MockAuditRepository{}
		repo.On("DeleteBefore", ctx, mock.AnythingOfType("time.Time")).Return(int64(5), nil)

		var out bytes.Buffer
		err := RunCleanAuditRecords(ctx, repo, logger, &out, 90, false, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "deleted 5 audit record(s)")
		repo.AssertExpectations(t)
	})

	t.Run("dry-run", func(t *testing.T) {
		repo := &MockAuditRepository{}
		repo.On("CountBefore", ctx, mock.AnythingOfType("time.Time")).Return(int64(3), nil)

		var out bytes.Buffer
		err := RunCleanAuditRecords(ctx, repo, logger, &out, 90, true, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Would delete 3 audit record(s)")
		repo.AssertNotCalled(t, "DeleteBefore", mock.Anything, mock.Anything)
	})

	t.Run("json-format", func(t *testing.T) {
		repo := &MockAuditRepository{}
		repo.On("DeleteBefore", ctx, mock.AnythingOfType("time.Time")).Return(int64(0), nil)

		var out bytes.Buffer
		err := RunCleanAuditRecords(ctx, repo, logger, &out, 30, false, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"count": 0`)
		require.Contains(t, out.String(), `"dry_run": false`)
	})

	t.Run("negative-days", func(t *testing.T) {
		repo := &MockAuditRepository{}

		err := RunCleanAuditRecords(ctx, repo, logger, &bytes.Buffer{}, -2, false, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "days must be a positive number")
	})
}
