package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	auditDomain "github.com/moltid/authcore/internal/audit/domain"
	"github.com/moltid/authcore/internal/audit/http/dto"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) Get(ctx context.Context, id uuid.UUID) (*auditDomain.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.Record), args.Error(1)
}

func (m *mockReader) List(
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

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func createTestContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func setupTestHandler(t *testing.T) (*AuditHandler, *mockReader) {
	t.Helper()

	mockUseCase := &mockReader{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewAuditHandler(mockUseCase, logger), mockUseCase
}

func newTestRecord() *auditDomain.Record {
	return &auditDomain.Record{
		ID:                 uuid.Must(uuid.NewV7()),
		MessageID:          "msg-1",
		Sender:             "did:molt:key:c2VuZGVy",
		Operation:          "msg/send",
		Verdict:            auditDomain.VerdictAllow,
		ResolvedCapability: "msg/dm: send",
		CreatedAt:          time.Now().UTC(),
	}
}

func TestAuditHandler_GetHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		record := newTestRecord()

		mockUseCase.On("Get", mock.Anything, record.ID).
			Return(record, nil).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/audit-records/"+record.ID.String())
		c.Params = gin.Params{{Key: "id", Value: record.ID.String()}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.RecordResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, record.ID.String(), response.ID)
		assert.Equal(t, "allow", response.Verdict)
		assert.Equal(t, "msg/dm: send", response.ResolvedCapability)

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidUUID", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/audit-records/invalid-uuid")
		c.Params = gin.Params{{Key: "id", Value: "invalid-uuid"}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		recordID := uuid.Must(uuid.NewV7())

		mockUseCase.On("Get", mock.Anything, recordID).
			Return(nil, auditDomain.ErrRecordNotFound).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/audit-records/"+recordID.String())
		c.Params = gin.Params{{Key: "id", Value: recordID.String()}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)

		mockUseCase.AssertExpectations(t)
	})
}

func TestAuditHandler_ListHandler(t *testing.T) {
	t.Run("Success_DefaultRange", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		records := []*auditDomain.Record{newTestRecord(), newTestRecord()}

		mockUseCase.On("List", mock.Anything, mock.Anything, mock.Anything, defaultListLimit).
			Return(records, nil).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/audit-records")

		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListRecordsResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Len(t, response.Data, 2)

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Success_ExplicitRange", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

		mockUseCase.On("List", mock.Anything, from, to, 10).
			Return([]*auditDomain.Record{}, nil).
			Once()

		c, w := createTestContext(http.MethodGet,
			"/v1/audit-records?from=2026-08-01T00:00:00Z&to=2026-08-02T00:00:00Z&limit=10")

		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListRecordsResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Empty(t, response.Data)
		assert.NotNil(t, response.Data)

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidFrom", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/audit-records?from=yesterday")

		handler.ListHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_InvertedRange", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet,
			"/v1/audit-records?from=2026-08-02T00:00:00Z&to=2026-08-01T00:00:00Z")

		handler.ListHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_LimitOutOfRange", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/audit-records?limit=100000")

		handler.ListHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_ListFails", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("List", mock.Anything, mock.Anything, mock.Anything, defaultListLimit).
			Return(nil, errors.New("database error")).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/audit-records")

		handler.ListHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		mockUseCase.AssertExpectations(t)
	})
}
