package http

import (
	"bytes"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/moltid/authcore/internal/envelope/http/dto"
	envelopeUseCase "github.com/moltid/authcore/internal/envelope/usecase"
)

type mockAuthorizer struct {
	mock.Mock
}

func (m *mockAuthorizer) Authorize(
	ctx context.Context,
	raw []byte,
	transport envelopeUseCase.Transport,
	now time.Time,
) (*envelopeUseCase.Decision, error) {
	args := m.Called(ctx, raw, transport, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelopeUseCase.Decision), args.Error(1)
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func createTestContext(method, path string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader io.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	}

	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func setupTestHandler(t *testing.T) (*AuthorizeHandler, *mockAuthorizer) {
	t.Helper()

	mockUseCase := &mockAuthorizer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewAuthorizeHandler(mockUseCase, logger), mockUseCase
}

func TestAuthorizeHandler_AuthorizeHandler(t *testing.T) {
	envelope := json.RawMessage(`{"moltspeak":"1.0","id":"msg-1"}`)

	t.Run("Success_Allowed", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		request := dto.AuthorizeRequest{
			Envelope: envelope,
			Transport: dto.TransportInfo{
				Encrypted: true,
				Platform:  "relay-a",
				RateCount: 3,
			},
		}

		expectedTransport := envelopeUseCase.Transport{
			Encrypted: true,
			Platform:  "relay-a",
			RateCount: 3,
		}

		mockUseCase.On("Authorize", mock.Anything, []byte(envelope), expectedTransport, mock.Anything).
			Return(&envelopeUseCase.Decision{
				Allowed:            true,
				ResolvedCapability: "msg/dm: send",
			}, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/authorize", request)

		handler.AuthorizeHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.AuthorizeResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response.Allowed)
		assert.Empty(t, response.ReasonCode)
		assert.Equal(t, "msg/dm: send", response.ResolvedCapability)

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Success_Denied", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		request := dto.AuthorizeRequest{
			Envelope:  envelope,
			Transport: dto.TransportInfo{Encrypted: false},
		}

		mockUseCase.On("Authorize", mock.Anything, []byte(envelope), mock.Anything, mock.Anything).
			Return(&envelopeUseCase.Decision{
				Allowed:    false,
				ReasonCode: "scope_exceeded",
			}, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/authorize", request)

		handler.AuthorizeHandler(c)

		// Policy denials are verdicts, not HTTP errors.
		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.AuthorizeResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.False(t, response.Allowed)
		assert.Equal(t, "scope_exceeded", response.ReasonCode)

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/authorize", nil)
		c.Request.Body = io.NopCloser(bytes.NewReader([]byte("not json")))

		handler.AuthorizeHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "validation_error", response["error"])
	})

	t.Run("Error_MissingEnvelope", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		request := dto.AuthorizeRequest{
			Transport: dto.TransportInfo{Encrypted: true},
		}

		c, w := createTestContext(http.MethodPost, "/v1/authorize", request)

		handler.AuthorizeHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "validation_error", response["error"])
	})

	t.Run("Error_InfrastructureFailure", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		request := dto.AuthorizeRequest{Envelope: envelope}

		mockUseCase.On("Authorize", mock.Anything, []byte(envelope), mock.Anything, mock.Anything).
			Return(nil, errors.New("database error")).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/authorize", request)

		handler.AuthorizeHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "internal_error", response["error"])

		mockUseCase.AssertExpectations(t)
	})
}
