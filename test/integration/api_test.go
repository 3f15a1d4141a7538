// Package integration provides end-to-end integration tests for the
// authorization API. Tests run against both PostgreSQL and MySQL databases.
package integration

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/secrets"
	_ "gocloud.dev/secrets/localsecrets"

	"github.com/moltid/authcore/internal/app"
	authDomain "github.com/moltid/authcore/internal/auth/domain"
	authDTO "github.com/moltid/authcore/internal/auth/http/dto"
	"github.com/moltid/authcore/internal/authz"
	"github.com/moltid/authcore/internal/capability"
	"github.com/moltid/authcore/internal/config"
	consentDomain "github.com/moltid/authcore/internal/consent/domain"
	consentDTO "github.com/moltid/authcore/internal/consent/http/dto"
	consentUseCase "github.com/moltid/authcore/internal/consent/usecase"
	"github.com/moltid/authcore/internal/cryptoutil"
	delegationDomain "github.com/moltid/authcore/internal/delegation/domain"
	delegationDTO "github.com/moltid/authcore/internal/delegation/http/dto"
	delegationUseCase "github.com/moltid/authcore/internal/delegation/usecase"
	envelopeDomain "github.com/moltid/authcore/internal/envelope/domain"
	envelopeDTO "github.com/moltid/authcore/internal/envelope/http/dto"
	identityDTO "github.com/moltid/authcore/internal/identity/http/dto"
	"github.com/moltid/authcore/internal/pii"
	revocationDomain "github.com/moltid/authcore/internal/revocation/domain"
	revocationDTO "github.com/moltid/authcore/internal/revocation/http/dto"
	revocationUseCase "github.com/moltid/authcore/internal/revocation/usecase"
	"github.com/moltid/authcore/internal/testutil"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	rootToken string
	dbDriver  string
	signer    cryptoutil.Adapter
}

// testAgent is a registered agent identity plus its private key, which the
// server never sees.
type testAgent struct {
	ID         string
	DID        string
	PublicKey  string
	PrivateKey ed25519.PrivateKey
}

// makeRequest performs an HTTP request and returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
	useAuth bool,
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if useAuth {
		req.Header.Set("Authorization", "Bearer "+ctx.rootToken)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// registerAgent generates a fresh keypair and registers an agent over HTTP.
func (ctx *integrationTestContext) registerAgent(
	t *testing.T,
	name, org string,
	rootCaps []capability.Capability,
) *testAgent {
	t.Helper()

	pub, priv, err := cryptoutil.GenerateKeyPair()
	require.NoError(t, err, "failed to generate agent keypair")

	req := identityDTO.RegisterAgentRequest{
		Name:             name,
		Org:              org,
		PublicKey:        cryptoutil.EncodePublicKey(pub),
		RootCapabilities: rootCaps,
	}
	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/agents", req, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "agent registration failed: %s", body)

	var agent identityDTO.AgentResponse
	require.NoError(t, json.Unmarshal(body, &agent))
	require.NotEmpty(t, agent.DID)

	return &testAgent{
		ID:         agent.ID,
		DID:        agent.DID,
		PublicKey:  agent.PublicKey,
		PrivateKey: priv,
	}
}

// submitDelegation signs a delegation token with the issuer's key and submits
// it over HTTP, returning the response for status assertions.
func (ctx *integrationTestContext) submitDelegation(
	t *testing.T,
	token *delegationDomain.Token,
	issuerKey ed25519.PrivateKey,
) (*http.Response, []byte) {
	t.Helper()

	signed, err := delegationUseCase.SigningBytes(token)
	require.NoError(t, err, "failed to compute token signing bytes")
	token.Signature = ctx.signer.Sign(issuerKey, signed)

	req := delegationDTO.SubmitTokenRequest{
		ID:           token.ID,
		Issuer:       token.Issuer,
		Audience:     token.Audience,
		Capabilities: token.Capabilities,
		ProofChain:   token.ProofChain,
		NotBefore:    token.NotBefore,
		Expires:      token.Expires,
		MaxUses:      token.MaxUses,
		Policy:       delegationDTO.PolicyRequest{AllowDelegation: token.Policy.AllowDelegation},
		Signature:    token.Signature,
	}
	return ctx.makeRequest(t, http.MethodPost, "/v1/delegations", req, true)
}

// signEnvelope fills the envelope signature in place and returns the wire form.
func (ctx *integrationTestContext) signEnvelope(
	t *testing.T,
	env *envelopeDomain.Envelope,
	senderKey ed25519.PrivateKey,
) json.RawMessage {
	t.Helper()

	signingBytes, err := env.SigningBytes()
	require.NoError(t, err, "failed to compute envelope signing bytes")
	env.Signature = ctx.signer.Sign(senderKey, signingBytes)

	raw, err := json.Marshal(env)
	require.NoError(t, err, "failed to marshal envelope")
	return raw
}

// authorize submits an envelope and returns the decision.
func (ctx *integrationTestContext) authorize(
	t *testing.T,
	raw json.RawMessage,
	transport envelopeDTO.TransportInfo,
) envelopeDTO.AuthorizeResponse {
	t.Helper()

	req := envelopeDTO.AuthorizeRequest{Envelope: raw, Transport: transport}
	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/authorize", req, true)
	require.Equal(t, http.StatusOK, resp.StatusCode, "authorize failed: %s", body)

	var decision envelopeDTO.AuthorizeResponse
	require.NoError(t, json.Unmarshal(body, &decision))
	return decision
}

// wrapAuditRootKey wraps a random audit root key with a throwaway local
// keeper and returns the keeper URI and the base64 ciphertext.
func wrapAuditRootKey(t *testing.T) (keyURI, ciphertext string) {
	t.Helper()

	secret := make([]byte, 32)
	_, err := rand.Read(secret)
	require.NoError(t, err, "failed to generate keeper secret")
	keyURI = "base64key://" + base64.URLEncoding.EncodeToString(secret)

	keeper, err := secrets.OpenKeeper(context.Background(), keyURI)
	require.NoError(t, err, "failed to open local keeper")
	defer func() {
		_ = keeper.Close()
	}()

	rootKey := make([]byte, 32)
	_, err = rand.Read(rootKey)
	require.NoError(t, err, "failed to generate audit root key")

	wrapped, err := keeper.Encrypt(context.Background(), rootKey)
	require.NoError(t, err, "failed to wrap audit root key")

	return keyURI, base64.StdEncoding.EncodeToString(wrapped)
}

// setupIntegrationTest initializes all components for integration testing.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Setup database
	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		testutil.SkipIfNoPostgres(t)
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		testutil.SkipIfNoMySQL(t)
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	// Wrap an ephemeral audit root key with a local keeper
	kmsKeyURI, auditRootKey := wrapAuditRootKey(t)

	// Create configuration. Rate limiting stays off so request loops in the
	// tests are not throttled.
	cfg := &config.Config{
		DBDriver:               dbDriver,
		DBConnectionString:     dsn,
		DBMaxOpenConnections:   10,
		DBMaxIdleConnections:   5,
		DBConnMaxLifetime:      time.Hour,
		ServerHost:             "localhost",
		ServerPort:             8080,
		LogLevel:               "error",
		AuthTokenExpiration:    time.Hour,
		KMSKeyURI:              kmsKeyURI,
		AuditRootKeyCiphertext: auditRootKey,
		ReplayWindow:           5 * time.Minute,
		ReplayMaxEntries:       1024,
		MaxDelegationDepth:     8,
		ChainValidationTimeout: 5 * time.Second,
		LockoutMaxAttempts:     10,
		LockoutDuration:        time.Minute,
	}

	// Create DI container
	container := app.NewContainer(cfg)

	// Create root API client with all capabilities
	clientUseCase, err := container.ClientUseCase()
	require.NoError(t, err, "failed to get client use case")

	rootClientInput := &authDomain.CreateClientInput{
		Name:     "Root Integration Test Client",
		IsActive: true,
		Policies: []authDomain.PolicyDocument{
			{
				Path: "*",
				Capabilities: []authDomain.Capability{
					authDomain.ReadCapability,
					authDomain.WriteCapability,
					authDomain.DeleteCapability,
					authDomain.AuthorizeCapability,
					authDomain.RevokeCapability,
				},
			},
		},
	}

	rootClientOutput, err := clientUseCase.Create(context.Background(), rootClientInput)
	require.NoError(t, err, "failed to create root client")

	// Issue token for root client
	tokenUseCase, err := container.TokenUseCase()
	require.NoError(t, err, "failed to get token use case")

	tokenOutput, err := tokenUseCase.Issue(context.Background(), &authDomain.IssueTokenInput{
		ClientID:     rootClientOutput.ID,
		ClientSecret: rootClientOutput.PlainSecret,
	})
	require.NoError(t, err, "failed to issue token")

	// Setup HTTP server
	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil after SetupRouter")

	testServer := httptest.NewServer(handler)

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    testServer,
		rootToken: tokenOutput.PlainToken,
		dbDriver:  dbDriver,
		signer:    cryptoutil.NewAdapter(),
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}
}

// integrationDrivers returns the database drivers the suite runs against.
func integrationDrivers() []struct {
	name     string
	dbDriver string
} {
	return []struct {
		name     string
		dbDriver string
	}{
		{"PostgreSQL", "postgres"},
		{"MySQL", "mysql"},
	}
}

// sendCaps grants sending every message operation.
func sendCaps() []capability.Capability {
	return []capability.Capability{
		{Resource: "messages/*", Actions: []capability.Action{"send"}},
	}
}

// newEnvelope builds a minimal valid internal-classified envelope.
func newEnvelope(from, to *testAgent, op envelopeDomain.Operation, payload string) *envelopeDomain.Envelope {
	return &envelopeDomain.Envelope{
		Version:        "0.1",
		ID:             uuid.Must(uuid.NewV7()).String(),
		Timestamp:      time.Now().UTC().UnixMilli(),
		Operation:      op,
		From:           envelopeDomain.AgentRef{Agent: from.DID},
		To:             envelopeDomain.AgentRef{Agent: to.DID},
		Payload:        json.RawMessage(payload),
		Classification: envelopeDomain.ClassificationInternal,
	}
}

// TestIntegration_Health_BasicChecks validates infrastructure health and readiness endpoints.
func TestIntegration_Health_BasicChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range integrationDrivers() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			t.Run("01_HealthCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]string
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "healthy", response["status"])
			})

			t.Run("02_ReadinessCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/ready", nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]any
				err := json.Unmarshal(body, &response)
				require.NoError(t, err)
				assert.Equal(t, "ready", response["status"])
			})
		})
	}
}

// TestIntegration_Auth_ClientLifecycle tests client management and token issuance.
func TestIntegration_Auth_ClientLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range integrationDrivers() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			var clientID, clientSecret string

			t.Run("01_CreateClient", func(t *testing.T) {
				req := authDTO.CreateClientRequest{
					Name:     "relay-gateway",
					IsActive: true,
					Policies: []authDomain.PolicyDocument{
						{Path: "agents/*", Capabilities: []authDomain.Capability{authDomain.ReadCapability}},
					},
				}
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/clients", req, true)
				require.Equal(t, http.StatusCreated, resp.StatusCode, "create client failed: %s", body)

				var created authDTO.CreateClientResponse
				require.NoError(t, json.Unmarshal(body, &created))
				assert.NotEmpty(t, created.ID)
				assert.NotEmpty(t, created.Secret)
				clientID = created.ID
				clientSecret = created.Secret
			})

			t.Run("02_IssueToken", func(t *testing.T) {
				req := authDTO.IssueTokenRequest{ClientID: clientID, ClientSecret: clientSecret}
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/token", req, false)
				require.Equal(t, http.StatusCreated, resp.StatusCode, "issue token failed: %s", body)

				var issued authDTO.IssueTokenResponse
				require.NoError(t, json.Unmarshal(body, &issued))
				assert.NotEmpty(t, issued.Token)
				assert.True(t, issued.ExpiresAt.After(time.Now()))
			})

			t.Run("03_GetClient", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/clients/"+clientID, nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var client authDTO.ClientResponse
				require.NoError(t, json.Unmarshal(body, &client))
				assert.Equal(t, "relay-gateway", client.Name)
				assert.True(t, client.IsActive)
			})

			t.Run("04_UpdateClient", func(t *testing.T) {
				req := authDTO.UpdateClientRequest{
					Name:     "relay-gateway-v2",
					IsActive: true,
					Policies: []authDomain.PolicyDocument{
						{Path: "agents/*", Capabilities: []authDomain.Capability{authDomain.ReadCapability}},
					},
				}
				resp, body := ctx.makeRequest(t, http.MethodPut, "/v1/clients/"+clientID, req, true)
				require.Equal(t, http.StatusOK, resp.StatusCode, "update client failed: %s", body)

				var client authDTO.ClientResponse
				require.NoError(t, json.Unmarshal(body, &client))
				assert.Equal(t, "relay-gateway-v2", client.Name)
			})

			t.Run("05_DeleteClient", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodDelete, "/v1/clients/"+clientID, nil, true)
				assert.Equal(t, http.StatusNoContent, resp.StatusCode)

				// Soft delete: the client remains readable but inactive.
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/clients/"+clientID, nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var client authDTO.ClientResponse
				require.NoError(t, json.Unmarshal(body, &client))
				assert.False(t, client.IsActive)
			})
		})
	}
}

// TestIntegration_Identity_AgentLifecycle tests agent registration, lookup,
// key rotation, and deactivation.
func TestIntegration_Identity_AgentLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range integrationDrivers() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			agent := ctx.registerAgent(t, "travel-assistant", "acme", sendCaps())

			t.Run("01_GetByID", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/agents/"+agent.ID, nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var got identityDTO.AgentResponse
				require.NoError(t, json.Unmarshal(body, &got))
				assert.Equal(t, agent.DID, got.DID)
				assert.Equal(t, "travel-assistant", got.Name)
				assert.True(t, got.IsActive)
			})

			t.Run("02_GetByDID", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/agents/did/"+agent.DID, nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var got identityDTO.AgentResponse
				require.NoError(t, json.Unmarshal(body, &got))
				assert.Equal(t, agent.ID, got.ID)
			})

			t.Run("03_RotateKey", func(t *testing.T) {
				newPub, _, err := cryptoutil.GenerateKeyPair()
				require.NoError(t, err)

				req := identityDTO.RotateKeyRequest{PublicKey: cryptoutil.EncodePublicKey(newPub)}
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/agents/"+agent.ID+"/rotate", req, true)
				require.Equal(t, http.StatusOK, resp.StatusCode, "rotate failed: %s", body)

				var got identityDTO.AgentResponse
				require.NoError(t, json.Unmarshal(body, &got))
				assert.Equal(t, cryptoutil.EncodePublicKey(newPub), got.PublicKey)
				assert.NotEqual(t, agent.PublicKey, got.PublicKey)
			})

			t.Run("04_Deactivate", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodDelete, "/v1/agents/"+agent.ID, nil, true)
				require.Equal(t, http.StatusNoContent, resp.StatusCode)

				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/agents/"+agent.ID, nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var got identityDTO.AgentResponse
				require.NoError(t, json.Unmarshal(body, &got))
				assert.False(t, got.IsActive)
			})
		})
	}
}

// TestIntegration_Delegation_EndToEnd walks the full delegation flow: a root
// agent delegates to A, A re-delegates a narrowed scope to B, B sends a
// message under the chain, a replay is rejected, and revoking the root token
// cuts off the whole chain.
func TestIntegration_Delegation_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range integrationDrivers() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			root := ctx.registerAgent(t, "root-orchestrator", "acme", sendCaps())
			agentA := ctx.registerAgent(t, "agent-a", "acme", nil)
			agentB := ctx.registerAgent(t, "agent-b", "acme", nil)

			now := time.Now().UTC()
			rootToken := &delegationDomain.Token{
				ID:           uuid.Must(uuid.NewV7()).String(),
				Issuer:       root.DID,
				Audience:     agentA.DID,
				Capabilities: sendCaps(),
				ProofChain:   []string{},
				NotBefore:    now.Add(-time.Minute).UnixMilli(),
				Expires:      now.Add(time.Hour).UnixMilli(),
				Policy:       delegationDomain.Policy{AllowDelegation: true},
			}

			t.Run("01_SubmitRootDelegation", func(t *testing.T) {
				resp, body := ctx.submitDelegation(t, rootToken, root.PrivateKey)
				require.Equal(t, http.StatusCreated, resp.StatusCode, "submit failed: %s", body)

				var submitted delegationDTO.SubmitTokenResponse
				require.NoError(t, json.Unmarshal(body, &submitted))
				assert.Equal(t, rootToken.ID, submitted.ID)
				assert.Len(t, submitted.ResolvedCapabilities, 1)
			})

			narrowed := &delegationDomain.Token{
				ID:     uuid.Must(uuid.NewV7()).String(),
				Issuer: agentA.DID,
				Audience: agentB.DID,
				Capabilities: []capability.Capability{
					{Resource: "messages/query", Actions: []capability.Action{"send"}},
				},
				ProofChain: []string{rootToken.ID},
				NotBefore:  now.Add(-time.Minute).UnixMilli(),
				Expires:    now.Add(30 * time.Minute).UnixMilli(),
				Policy:     delegationDomain.Policy{AllowDelegation: false},
			}

			t.Run("02_SubmitNarrowedDelegation", func(t *testing.T) {
				resp, body := ctx.submitDelegation(t, narrowed, agentA.PrivateKey)
				require.Equal(t, http.StatusCreated, resp.StatusCode, "submit failed: %s", body)
			})

			t.Run("03_RejectWidenedDelegation", func(t *testing.T) {
				widened := &delegationDomain.Token{
					ID:     uuid.Must(uuid.NewV7()).String(),
					Issuer: agentA.DID,
					Audience: agentB.DID,
					Capabilities: []capability.Capability{
						{Resource: "agents/admin", Actions: []capability.Action{"send"}},
					},
					ProofChain: []string{rootToken.ID},
					NotBefore:  now.Add(-time.Minute).UnixMilli(),
					Expires:    now.Add(30 * time.Minute).UnixMilli(),
				}
				resp, body := ctx.submitDelegation(t, widened, agentA.PrivateKey)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode, "widened token must be rejected: %s", body)
			})

			t.Run("04_AuthorizeUnderChain", func(t *testing.T) {
				env := newEnvelope(agentB, root, envelopeDomain.OperationQuery, `{"domain":"travel","intent":"flight.status"}`)
				env.From.Delegation = narrowed.ID
				raw := ctx.signEnvelope(t, env, agentB.PrivateKey)

				decision := ctx.authorize(t, raw, envelopeDTO.TransportInfo{Encrypted: true})
				assert.True(t, decision.Allowed, "expected allow, got %s", decision.ReasonCode)
				assert.NotEmpty(t, decision.ResolvedCapability)

				// Same envelope again is a replay.
				replayed := ctx.authorize(t, raw, envelopeDTO.TransportInfo{Encrypted: true})
				assert.False(t, replayed.Allowed)
				assert.Equal(t, authz.CodeReplayDetected, replayed.ReasonCode)
			})

			t.Run("05_RejectOutOfScopeOperation", func(t *testing.T) {
				env := newEnvelope(agentB, root, envelopeDomain.OperationTask, `{"action":"create","task_id":"t-book-1","type":"booking"}`)
				env.From.Delegation = narrowed.ID
				raw := ctx.signEnvelope(t, env, agentB.PrivateKey)

				decision := ctx.authorize(t, raw, envelopeDTO.TransportInfo{Encrypted: true})
				assert.False(t, decision.Allowed)
				assert.Equal(t, authz.CodeScopeExceeded, decision.ReasonCode)
			})

			t.Run("06_RevokeRootCutsChain", func(t *testing.T) {
				revokedAt := time.Now().UTC().Truncate(time.Second)
				record := &revocationDomain.Record{
					SubjectID:   rootToken.ID,
					SubjectKind: revocationDomain.SubjectKindDelegation,
					RevokedAt:   revokedAt,
					Reason:      "compromise suspected",
				}
				signed, err := revocationUseCase.SigningBytes(record)
				require.NoError(t, err)

				req := revocationDTO.CreateRevocationRequest{
					SubjectID:          record.SubjectID,
					SubjectKind:        string(record.SubjectKind),
					RevokedAt:          revokedAt,
					Reason:             record.Reason,
					AuthoritySignature: ctx.signer.Sign(root.PrivateKey, signed),
				}
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/revocations", req, true)
				require.Equal(t, http.StatusCreated, resp.StatusCode, "revocation failed: %s", body)

				// Status reflects the record.
				resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/revocations/"+rootToken.ID+"/status", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)
				var status revocationDTO.StatusResponse
				require.NoError(t, json.Unmarshal(body, &status))
				assert.True(t, status.Revoked)

				// A fresh message under the descendant token is now denied.
				env := newEnvelope(agentB, root, envelopeDomain.OperationQuery, `{"domain":"travel","intent":"flight.retry"}`)
				env.From.Delegation = narrowed.ID
				raw := ctx.signEnvelope(t, env, agentB.PrivateKey)

				decision := ctx.authorize(t, raw, envelopeDTO.TransportInfo{Encrypted: true})
				assert.False(t, decision.Allowed)
				assert.Equal(t, authz.CodeDelegationRevoked, decision.ReasonCode)
			})

			t.Run("07_AuditTrail", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/audit-records", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var list struct {
					Data []struct {
						MessageID string `json:"message_id"`
						Verdict   string `json:"verdict"`
					} `json:"data"`
				}
				require.NoError(t, json.Unmarshal(body, &list))
				require.NotEmpty(t, list.Data)

				verdicts := make(map[string]bool)
				for _, rec := range list.Data {
					verdicts[rec.Verdict] = true
				}
				assert.True(t, verdicts["allow"], "expected at least one allow verdict")
				assert.True(t, verdicts["deny"], "expected at least one deny verdict")
			})
		})
	}
}

// TestIntegration_Consent_PIIFlow tests consent registration and enforcement
// for PII-classified messages.
func TestIntegration_Consent_PIIFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range integrationDrivers() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			sender := ctx.registerAgent(t, "support-bot", "acme", sendCaps())
			receiver := ctx.registerAgent(t, "crm-agent", "acme", nil)
			grantor := ctx.registerAgent(t, "data-subject", "acme", nil)

			const piiPayload = `{"domain":"support","intent":"refund.contact","params":{"note":"contact alice@example.com about the refund"}}`

			consentID := uuid.Must(uuid.NewV7()).String()
			consent := &consentDomain.Token{
				ID:           consentID,
				SubjectTypes: []pii.Type{pii.TypeEmail},
				GrantedBy:    grantor.DID,
				Purpose:      "support",
				Scope:        "acme",
				Expires:      time.Now().UTC().Add(time.Hour).UnixMilli(),
			}

			t.Run("01_UndeclaredPIIDenied", func(t *testing.T) {
				env := newEnvelope(sender, receiver, envelopeDomain.OperationQuery, piiPayload)
				raw := ctx.signEnvelope(t, env, sender.PrivateKey)

				decision := ctx.authorize(t, raw, envelopeDTO.TransportInfo{Encrypted: true})
				assert.False(t, decision.Allowed)
				assert.Equal(t, authz.CodeConsentRequired, decision.ReasonCode)
			})

			t.Run("02_RegisterConsent", func(t *testing.T) {
				signed, err := consentUseCase.SigningBytes(consent)
				require.NoError(t, err)
				consent.Signature = ctx.signer.Sign(grantor.PrivateKey, signed)

				req := consentDTO.RegisterConsentRequest{
					ID:           consent.ID,
					SubjectTypes: []string{string(pii.TypeEmail)},
					GrantedBy:    consent.GrantedBy,
					Purpose:      consent.Purpose,
					Scope:        consent.Scope,
					Expires:      consent.Expires,
					Signature:    consent.Signature,
				}
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/consents", req, true)
				require.Equal(t, http.StatusCreated, resp.StatusCode, "consent registration failed: %s", body)
			})

			t.Run("03_DeclaredPIIWithConsentAllowed", func(t *testing.T) {
				env := newEnvelope(sender, receiver, envelopeDomain.OperationQuery, piiPayload)
				env.Classification = envelopeDomain.ClassificationPII
				env.PII = &envelopeDomain.PIIMeta{
					Types: []pii.Type{pii.TypeEmail},
					Consent: &envelopeDomain.ConsentClaim{
						GrantedBy: grantor.DID,
						Purpose:   "support",
						Proof:     consentID,
					},
				}
				raw := ctx.signEnvelope(t, env, sender.PrivateKey)

				decision := ctx.authorize(t, raw, envelopeDTO.TransportInfo{Encrypted: true})
				assert.True(t, decision.Allowed, "expected allow, got %s", decision.ReasonCode)
			})

			t.Run("04_UnknownConsentProofDenied", func(t *testing.T) {
				env := newEnvelope(sender, receiver, envelopeDomain.OperationQuery, piiPayload)
				env.Classification = envelopeDomain.ClassificationPII
				env.PII = &envelopeDomain.PIIMeta{
					Types: []pii.Type{pii.TypeEmail},
					Consent: &envelopeDomain.ConsentClaim{
						GrantedBy: grantor.DID,
						Purpose:   "support",
						Proof:     uuid.Must(uuid.NewV7()).String(),
					},
				}
				raw := ctx.signEnvelope(t, env, sender.PrivateKey)

				decision := ctx.authorize(t, raw, envelopeDTO.TransportInfo{Encrypted: true})
				assert.False(t, decision.Allowed)
				assert.Equal(t, authz.CodeConsentInvalid, decision.ReasonCode)
			})

			t.Run("05_UndeclaredTypeDenied", func(t *testing.T) {
				env := newEnvelope(sender, receiver, envelopeDomain.OperationQuery,
					`{"domain":"support","intent":"refund.contact","params":{"note":"alice@example.com, card 4111111111111111"}}`)
				env.Classification = envelopeDomain.ClassificationPII
				env.PII = &envelopeDomain.PIIMeta{
					Types: []pii.Type{pii.TypeEmail},
					Consent: &envelopeDomain.ConsentClaim{
						GrantedBy: grantor.DID,
						Purpose:   "support",
						Proof:     consentID,
					},
				}
				raw := ctx.signEnvelope(t, env, sender.PrivateKey)

				decision := ctx.authorize(t, raw, envelopeDTO.TransportInfo{Encrypted: true})
				assert.False(t, decision.Allowed)
				assert.Equal(t, authz.CodeConsentScopeMismatch, decision.ReasonCode)
			})
		})
	}
}

// TestIntegration_Secret_Classification tests the handling rules for
// secret-classified envelopes.
func TestIntegration_Secret_Classification(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range integrationDrivers() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			sender := ctx.registerAgent(t, "vault-agent", "acme", sendCaps())
			sameOrg := ctx.registerAgent(t, "deploy-agent", "acme", nil)
			otherOrg := ctx.registerAgent(t, "partner-agent", "globex", nil)

			t.Run("01_EncryptedSameOrgAllowed", func(t *testing.T) {
				env := newEnvelope(sender, sameOrg, envelopeDomain.OperationTask, `{"action":"create","task_id":"cred-rotate","params":{"cred":"rotate-me"}}`)
				env.Classification = envelopeDomain.ClassificationSecret
				env.From.Org = "acme"
				env.To.Org = "acme"
				raw := ctx.signEnvelope(t, env, sender.PrivateKey)

				decision := ctx.authorize(t, raw, envelopeDTO.TransportInfo{Encrypted: true})
				assert.True(t, decision.Allowed, "expected allow, got %s", decision.ReasonCode)
			})

			t.Run("02_UnencryptedDenied", func(t *testing.T) {
				env := newEnvelope(sender, sameOrg, envelopeDomain.OperationTask, `{"action":"create","task_id":"cred-rotate","params":{"cred":"rotate-me"}}`)
				env.Classification = envelopeDomain.ClassificationSecret
				env.From.Org = "acme"
				env.To.Org = "acme"
				raw := ctx.signEnvelope(t, env, sender.PrivateKey)

				decision := ctx.authorize(t, raw, envelopeDTO.TransportInfo{Encrypted: false})
				assert.False(t, decision.Allowed)
				assert.Equal(t, authz.CodeSecretWithoutEncryption, decision.ReasonCode)
			})

			t.Run("03_CrossOrgDenied", func(t *testing.T) {
				env := newEnvelope(sender, otherOrg, envelopeDomain.OperationTask, `{"action":"create","task_id":"cred-rotate","params":{"cred":"rotate-me"}}`)
				env.Classification = envelopeDomain.ClassificationSecret
				env.From.Org = "acme"
				env.To.Org = "globex"
				raw := ctx.signEnvelope(t, env, sender.PrivateKey)

				decision := ctx.authorize(t, raw, envelopeDTO.TransportInfo{Encrypted: true})
				assert.False(t, decision.Allowed)
				assert.Equal(t, authz.CodeScopeExceeded, decision.ReasonCode)
			})
		})
	}
}
