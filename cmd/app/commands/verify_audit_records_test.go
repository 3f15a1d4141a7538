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

	auditUseCase "github.com/moltid/authcore/internal/audit/usecase"
)

// MockAuditVerifier is a mock implementation of the audit Verifier.
type MockAuditVerifier struct {
	mock.Mock
}

func (m *MockAuditVerifier) VerifyRange(
	ctx context.Context,
	from, to time.Time,
	limit int,
) (*auditUseCase.VerifyResult, error) {
	args := m.Called(ctx, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditUseCase.VerifyResult), args.Error(1)
}

func TestRunVerifyAuditRecords(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("passed", func(t *testing.T) {
		verifier := &MockAuditVerifier{}
		verifier.On("VerifyRange", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time"), 100).
			Return(&auditUseCase.VerifyResult{Checked: 42}, nil)

		var out bytes.Buffer
		err := RunVerifyAuditRecords(ctx, verifier, logger, &out, "2026-01-01", "2026-02-01", 100, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Total Checked:  42")
		require.Contains(t, out.String(), "Status: PASSED")
		verifier.AssertExpectations(t)
	})

	t.Run("tampered", func(t *testing.T) {
		tamperedID := uuid.Must(uuid.NewV7())
		verifier := &MockAuditVerifier{}
		verifier.On("VerifyRange", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time"), 100).
			Return(&auditUseCase.VerifyResult{Checked: 10, Tampered: []uuid.UUID{tamperedID}}, nil)

		var out bytes.Buffer
		err := RunVerifyAuditRecords(ctx, verifier, logger, &out, "2026-01-01", "2026-02-01", 100, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "integrity check failed")
		require.Contains(t, out.String(), tamperedID.String())
		require.Contains(t, out.String(), "Status: FAILED")
	})

	t.Run("json-format", func(t *testing.T) {
		verifier := &MockAuditVerifier{}
		verifier.On("VerifyRange", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time"), 100).
			Return(&auditUseCase.VerifyResult{Checked: 7}, nil)

		var out bytes.Buffer
		err := RunVerifyAuditRecords(ctx, verifier, logger, &out, "2026-01-01 08:00:00", "2026-01-02 08:00:00", 100, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"checked": 7`)
		require.Contains(t, out.String(), `"passed": true`)
	})

	t.Run("invalid-dates", func(t *testing.T) {
		verifier := &MockAuditVerifier{}

		err := RunVerifyAuditRecords(ctx, verifier, logger, &bytes.Buffer{}, "not-a-date", "2026-02-01", 100, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid start date")

		err = RunVerifyAuditRecords(ctx, verifier, logger, &bytes.Buffer{}, "2026-02-01", "2026-01-01", 100, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "end date must be after start date")
	})
}
