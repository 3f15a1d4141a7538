// Package http provides HTTP middleware and utilities for authentication.
package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/moltid/authcore/internal/auth/domain"
	"github.com/moltid/authcore/internal/httputil"
)

// mockTokenUseCase is a mock implementation of TokenUseCase for testing.
type mockTokenUseCase struct {
	mock.Mock
}

func (m *mockTokenUseCase) Issue(
	ctx context.Context,
	issueTokenInput *authDomain.IssueTokenInput,
) (*authDomain.IssueTokenOutput, error) {
	args := m.Called(ctx, issueTokenInput)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.IssueTokenOutput), args.Error(1)
}

func (m *mockTokenUseCase) Authenticate(ctx context.Context, tokenHash string) (*authDomain.Client, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Client), args.Error(1)
}

// mockTokenService is a mock implementation of TokenService for testing.
type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) GenerateToken() (plainToken string, tokenHash string, error error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockTokenService) HashToken(plainToken string) string {
	args := m.Called(plainToken)
	return args.String(0)
}

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// createTestLogger creates a test logger that discards output.
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestAuthenticationMiddleware_Success tests successful authentication with valid Bearer token.
func TestAuthenticationMiddleware_Success(t *testing.T) {
	mockTokenUC := &mockTokenUseCase{}
	mockTokenSvc := &mockTokenService{}
	logger := createTestLogger()

	plainToken := "test-token-xyz789"
	tokenHash := "abcdef1234567890abcdef1234567890abcdef1234567890abcdef1234567890"
	clientID := uuid.Must(uuid.NewV7())
	client := &authDomain.Client{
		ID:       clientID,
		Name:     "test-client",
		IsActive: true,
		Policies: []authDomain.PolicyDocument{},
	}

	mockTokenSvc.On("HashToken", plainToken).Return(tokenHash).Once()
	mockTokenUC.On("Authenticate", mock.Anything, tokenHash).Return(client, nil).Once()

	router := gin.New()
	router.Use(AuthenticationMiddleware(mockTokenUC, mockTokenSvc, logger))
	router.GET("/test", func(c *gin.Context) {
		// Verify client is in context
		retrievedClient, ok := GetClient(c.Request.Context())
		require.True(t, ok, "client should be in context")
		require.NotNil(t, retrievedClient, "client should not be nil")
		assert.Equal(t, clientID, retrievedClient.ID)
		assert.Equal(t, "test-client", retrievedClient.Name)

		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+plainToken)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockTokenSvc.AssertExpectations(t)
	mockTokenUC.AssertExpectations(t)
}

// TestAuthenticationMiddleware_Success_CaseInsensitiveBearer tests case-insensitive Bearer prefix.
func TestAuthenticationMiddleware_Success_CaseInsensitiveBearer(t *testing.T) {
	testCases := []struct {
		name   string
		prefix string
	}{
		{"lowercase_bearer", "bearer "},
		{"uppercase_BEARER", "BEARER "},
		{"mixedcase_BeArEr", "BeArEr "},
		{"standard_Bearer", "Bearer "},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockTokenUC := &mockTokenUseCase{}
			mockTokenSvc := &mockTokenService{}
			logger := createTestLogger()

			plainToken := "test-token-xyz789"
			tokenHash := "hash123"
			client := &authDomain.Client{
				ID:       uuid.Must(uuid.NewV7()),
				Name:     "test-client",
				IsActive: true,
			}

			mockTokenSvc.On("HashToken", plainToken).Return(tokenHash).Once()
			mockTokenUC.On("Authenticate", mock.Anything, tokenHash).Return(client, nil).Once()

			router := gin.New()
			router.Use(AuthenticationMiddleware(mockTokenUC, mockTokenSvc, logger))
			router.GET("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "success"})
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", tc.prefix+plainToken)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			mockTokenSvc.AssertExpectations(t)
			mockTokenUC.AssertExpectations(t)
		})
	}
}

// TestAuthenticationMiddleware_Error_MissingAuthorizationHeader tests missing Authorization header.
func TestAuthenticationMiddleware_Error_MissingAuthorizationHeader(t *testing.T) {
	mockTokenUC := &mockTokenUseCase{}
	mockTokenSvc := &mockTokenService{}
	logger := createTestLogger()

	router := gin.New()
	router.Use(AuthenticationMiddleware(mockTokenUC, mockTokenSvc, logger))
	router.GET("/test", func(c *gin.Context) {
		t.Fatal("handler should not be called when authentication fails")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response httputil.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "unauthorized", response.Error)

	mockTokenSvc.AssertNotCalled(t, "HashToken", mock.Anything)
	mockTokenUC.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
}

// TestAuthenticationMiddleware_Error_MalformedAuthorizationHeader tests malformed Authorization header.
func TestAuthenticationMiddleware_Error_MalformedAuthorizationHeader(t *testing.T) {
	testCases := []struct {
		name   string
		header string
	}{
		{"no_prefix", "just-a-token"},
		{"wrong_prefix", "Basic username:password"},
		{"missing_space", "Bearertoken"},
		{"only_bearer", "Bearer"},
		{"empty_token", "Bearer "},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockTokenUC := &mockTokenUseCase{}
			mockTokenSvc := &mockTokenService{}
			logger := createTestLogger()

			router := gin.New()
			router.Use(AuthenticationMiddleware(mockTokenUC, mockTokenSvc, logger))
			router.GET("/test", func(c *gin.Context) {
				t.Fatal("handler should not be called when authentication fails")
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", tc.header)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var response httputil.ErrorResponse
			err := json.Unmarshal(w.Body.Bytes(), &response)
			require.NoError(t, err)
			assert.Equal(t, "unauthorized", response.Error)

			mockTokenSvc.AssertNotCalled(t, "HashToken", mock.Anything)
			mockTokenUC.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
		})
	}
}

// TestAuthenticationMiddleware_Error_InvalidToken tests authentication with invalid token.
func TestAuthenticationMiddleware_Error_InvalidToken(t *testing.T) {
	mockTokenUC := &mockTokenUseCase{}
	mockTokenSvc := &mockTokenService{}
	logger := createTestLogger()

	plainToken := "invalid-token"
	tokenHash := "invalid-hash"

	mockTokenSvc.On("HashToken", plainToken).Return(tokenHash).Once()
	mockTokenUC.On("Authenticate", mock.Anything, tokenHash).
		Return(nil, authDomain.ErrInvalidCredentials).Once()

	router := gin.New()
	router.Use(AuthenticationMiddleware(mockTokenUC, mockTokenSvc, logger))
	router.GET("/test", func(c *gin.Context) {
		t.Fatal("handler should not be called when authentication fails")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+plainToken)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response httputil.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "unauthorized", response.Error)

	mockTokenSvc.AssertExpectations(t)
	mockTokenUC.AssertExpectations(t)
}

// TestAuthenticationMiddleware_Error_InactiveClient tests authentication with inactive client.
func TestAuthenticationMiddleware_Error_InactiveClient(t *testing.T) {
	mockTokenUC := &mockTokenUseCase{}
	mockTokenSvc := &mockTokenService{}
	logger := createTestLogger()

	plainToken := "valid-token"
	tokenHash := "valid-hash"

	mockTokenSvc.On("HashToken", plainToken).Return(tokenHash).Once()
	mockTokenUC.On("Authenticate", mock.Anything, tokenHash).
		Return(nil, authDomain.ErrClientInactive).Once()

	router := gin.New()
	router.Use(AuthenticationMiddleware(mockTokenUC, mockTokenSvc, logger))
	router.GET("/test", func(c *gin.Context) {
		t.Fatal("handler should not be called when authentication fails")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+plainToken)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var response httputil.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "forbidden", response.Error)

	mockTokenSvc.AssertExpectations(t)
	mockTokenUC.AssertExpectations(t)
}

// TestAuthenticationMiddleware_Error_DatabaseError tests authentication with database error.
func TestAuthenticationMiddleware_Error_DatabaseError(t *testing.T) {
	mockTokenUC := &mockTokenUseCase{}
	mockTokenSvc := &mockTokenService{}
	logger := createTestLogger()

	plainToken := "valid-token"
	tokenHash := "valid-hash"

	mockTokenSvc.On("HashToken", plainToken).Return(tokenHash).Once()
	mockTokenUC.On("Authenticate", mock.Anything, tokenHash).
		Return(nil, assert.AnError).Once()

	router := gin.New()
	router.Use(AuthenticationMiddleware(mockTokenUC, mockTokenSvc, logger))
	router.GET("/test", func(c *gin.Context) {
		t.Fatal("handler should not be called when authentication fails")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+plainToken)
	router.ServeHTTP(w, req)

	// Unexpected errors map to 500
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response httputil.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "internal_error", response.Error)

	mockTokenSvc.AssertExpectations(t)
	mockTokenUC.AssertExpectations(t)
}

// TestGetClient_WithClient tests GetClient when client is in context.
func TestGetClient_WithClient(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.Must(uuid.NewV7())
	client := &authDomain.Client{
		ID:       clientID,
		Name:     "test-client",
		IsActive: true,
	}

	ctx = WithClient(ctx, client)

	retrievedClient, ok := GetClient(ctx)

	assert.True(t, ok, "GetClient should return true")
	require.NotNil(t, retrievedClient, "client should not be nil")
	assert.Equal(t, clientID, retrievedClient.ID)
	assert.Equal(t, "test-client", retrievedClient.Name)
	assert.True(t, retrievedClient.IsActive)
}

// TestGetClient_WithoutClient tests GetClient when no client is in context.
func TestGetClient_WithoutClient(t *testing.T) {
	retrievedClient, ok := GetClient(context.Background())

	assert.False(t, ok, "GetClient should return false")
	assert.Nil(t, retrievedClient, "client should be nil")
}

// TestGetPath tests storing and retrieving the authorized path.
func TestGetPath(t *testing.T) {
	ctx := context.Background()
	expectedPath := "/v1/delegations"

	ctx = WithPath(ctx, expectedPath)

	retrievedPath, ok := GetPath(ctx)
	assert.True(t, ok, "GetPath should return true")
	assert.Equal(t, expectedPath, retrievedPath)

	_, ok = GetPath(context.Background())
	assert.False(t, ok, "GetPath should return false on empty context")
}

// TestGetCapability tests storing and retrieving the authorized capability.
func TestGetCapability(t *testing.T) {
	testCases := []struct {
		name       string
		capability authDomain.Capability
	}{
		{"ReadCapability", authDomain.ReadCapability},
		{"WriteCapability", authDomain.WriteCapability},
		{"DeleteCapability", authDomain.DeleteCapability},
		{"AuthorizeCapability", authDomain.AuthorizeCapability},
		{"RevokeCapability", authDomain.RevokeCapability},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := WithCapability(context.Background(), tc.capability)

			retrievedCapability, ok := GetCapability(ctx)
			assert.True(t, ok, "GetCapability should return true")
			assert.Equal(t, tc.capability, retrievedCapability)
		})
	}

	_, ok := GetCapability(context.Background())
	assert.False(t, ok, "GetCapability should return false on empty context")
}

// withTestClient simulates AuthenticationMiddleware by storing a client in context.
func withTestClient(client *authDomain.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithClient(c.Request.Context(), client)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// TestAuthorizationMiddleware_Success tests successful authorization with exact path match.
func TestAuthorizationMiddleware_Success(t *testing.T) {
	logger := createTestLogger()
	clientID := uuid.Must(uuid.NewV7())

	client := &authDomain.Client{
		ID:       clientID,
		Name:     "test-client",
		IsActive: true,
		Policies: []authDomain.PolicyDocument{
			{
				Path:         "/v1/authorize",
				Capabilities: []authDomain.Capability{authDomain.AuthorizeCapability},
			},
		},
	}

	router := gin.New()
	router.Use(withTestClient(client))
	router.Use(AuthorizationMiddleware(authDomain.AuthorizeCapability, logger))
	router.POST("/v1/authorize", func(c *gin.Context) {
		// Path and capability should be recorded for downstream logging
		path, ok := GetPath(c.Request.Context())
		require.True(t, ok)
		assert.Equal(t, "/v1/authorize", path)

		capability, ok := GetCapability(c.Request.Context())
		require.True(t, ok)
		assert.Equal(t, authDomain.AuthorizeCapability, capability)

		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/authorize", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// TestAuthorizationMiddleware_Success_WildcardPath tests authorization with wildcard "*" path.
func TestAuthorizationMiddleware_Success_WildcardPath(t *testing.T) {
	logger := createTestLogger()
	clientID := uuid.Must(uuid.NewV7())

	// Admin client with wildcard access
	client := &authDomain.Client{
		ID:       clientID,
		Name:     "admin-client",
		IsActive: true,
		Policies: []authDomain.PolicyDocument{
			{
				Path:         "*",
				Capabilities: []authDomain.Capability{authDomain.ReadCapability, authDomain.WriteCapability},
			},
		},
	}

	testCases := []struct {
		name       string
		path       string
		capability authDomain.Capability
	}{
		{"read_any_path", "/v1/delegations", authDomain.ReadCapability},
		{"write_any_path", "/v1/delegations/new", authDomain.WriteCapability},
		{"read_different_path", "/v1/agents/123", authDomain.ReadCapability},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(withTestClient(client))
			router.Use(AuthorizationMiddleware(tc.capability, logger))
			router.GET(tc.path, func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "success"})
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

// TestAuthorizationMiddleware_PrefixWildcard tests authorization with prefix wildcard "path/*".
func TestAuthorizationMiddleware_PrefixWildcard(t *testing.T) {
	logger := createTestLogger()
	clientID := uuid.Must(uuid.NewV7())

	client := &authDomain.Client{
		ID:       clientID,
		Name:     "delegations-client",
		IsActive: true,
		Policies: []authDomain.PolicyDocument{
			{
				Path:         "/v1/delegations/*",
				Capabilities: []authDomain.Capability{authDomain.ReadCapability},
			},
		},
	}

	testCases := []struct {
		name          string
		path          string
		shouldSucceed bool
	}{
		{"match_prefix_single", "/v1/delegations/abc", true},
		{"match_prefix_nested", "/v1/delegations/abc/chain", true},
		{"no_match_different_prefix", "/v1/revocations/abc", false},
		{"no_match_exact_without_slash", "/v1/delegations", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(withTestClient(client))
			router.Use(AuthorizationMiddleware(authDomain.ReadCapability, logger))
			router.GET("/*path", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "success"})
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			router.ServeHTTP(w, req)

			if tc.shouldSucceed {
				assert.Equal(t, http.StatusOK, w.Code)
			} else {
				assert.Equal(t, http.StatusForbidden, w.Code)
			}
		})
	}
}

// TestAuthorizationMiddleware_Error_NoClientInContext tests missing client in context.
func TestAuthorizationMiddleware_Error_NoClientInContext(t *testing.T) {
	logger := createTestLogger()

	// No AuthenticationMiddleware in the chain
	router := gin.New()
	router.Use(AuthorizationMiddleware(authDomain.ReadCapability, logger))
	router.GET("/test", func(c *gin.Context) {
		t.Fatal("handler should not be called when authorization fails")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response httputil.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "unauthorized", response.Error)
}

// TestAuthorizationMiddleware_Error_ClientLacksCapability tests client without required capability.
func TestAuthorizationMiddleware_Error_ClientLacksCapability(t *testing.T) {
	logger := createTestLogger()
	clientID := uuid.Must(uuid.NewV7())

	// Read-only client
	client := &authDomain.Client{
		ID:       clientID,
		Name:     "readonly-client",
		IsActive: true,
		Policies: []authDomain.PolicyDocument{
			{
				Path:         "/v1/revocations",
				Capabilities: []authDomain.Capability{authDomain.ReadCapability},
			},
		},
	}

	router := gin.New()
	router.Use(withTestClient(client))
	router.Use(AuthorizationMiddleware(authDomain.RevokeCapability, logger))
	router.POST("/v1/revocations", func(c *gin.Context) {
		t.Fatal("handler should not be called when authorization fails")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/revocations", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var response httputil.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "forbidden", response.Error)
}

// TestAuthorizationMiddleware_Error_PathNotInPolicy tests path not matching any policy.
func TestAuthorizationMiddleware_Error_PathNotInPolicy(t *testing.T) {
	logger := createTestLogger()
	clientID := uuid.Must(uuid.NewV7())

	client := &authDomain.Client{
		ID:       clientID,
		Name:     "limited-client",
		IsActive: true,
		Policies: []authDomain.PolicyDocument{
			{
				Path:         "/v1/delegations",
				Capabilities: []authDomain.Capability{authDomain.ReadCapability},
			},
		},
	}

	router := gin.New()
	router.Use(withTestClient(client))
	router.Use(AuthorizationMiddleware(authDomain.ReadCapability, logger))
	router.GET("/v1/agents", func(c *gin.Context) {
		t.Fatal("handler should not be called when authorization fails")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/agents", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var response httputil.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "forbidden", response.Error)
}

// TestAuthorizationMiddleware_Error_NoPolicies tests client with no policies.
func TestAuthorizationMiddleware_Error_NoPolicies(t *testing.T) {
	logger := createTestLogger()
	clientID := uuid.Must(uuid.NewV7())

	client := &authDomain.Client{
		ID:       clientID,
		Name:     "no-policy-client",
		IsActive: true,
		Policies: []authDomain.PolicyDocument{},
	}

	router := gin.New()
	router.Use(withTestClient(client))
	router.Use(AuthorizationMiddleware(authDomain.ReadCapability, logger))
	router.GET("/v1/delegations", func(c *gin.Context) {
		t.Fatal("handler should not be called when authorization fails")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/delegations", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var response httputil.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "forbidden", response.Error)
}
