// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	auditHTTP "github.com/moltid/authcore/internal/audit/http"
	auditService "github.com/moltid/authcore/internal/audit/service"
	auditUseCase "github.com/moltid/authcore/internal/audit/usecase"
	authHTTP "github.com/moltid/authcore/internal/auth/http"
	authService "github.com/moltid/authcore/internal/auth/service"
	authUseCase "github.com/moltid/authcore/internal/auth/usecase"
	"github.com/moltid/authcore/internal/config"
	consentHTTP "github.com/moltid/authcore/internal/consent/http"
	consentUseCase "github.com/moltid/authcore/internal/consent/usecase"
	"github.com/moltid/authcore/internal/database"
	delegationHTTP "github.com/moltid/authcore/internal/delegation/http"
	delegationUseCase "github.com/moltid/authcore/internal/delegation/usecase"
	envelopeHTTP "github.com/moltid/authcore/internal/envelope/http"
	envelopeUseCase "github.com/moltid/authcore/internal/envelope/usecase"
	"github.com/moltid/authcore/internal/http"
	identityHTTP "github.com/moltid/authcore/internal/identity/http"
	identityUseCase "github.com/moltid/authcore/internal/identity/usecase"
	"github.com/moltid/authcore/internal/metrics"
	"github.com/moltid/authcore/internal/pii"
	"github.com/moltid/authcore/internal/replay"
	revocationHTTP "github.com/moltid/authcore/internal/revocation/http"
	revocationUseCase "github.com/moltid/authcore/internal/revocation/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Auth
	secretService   authService.SecretService
	tokenService    authService.TokenService
	clientRepo      authUseCase.ClientRepository
	tokenRepo       authUseCase.TokenRepository
	clientUseCase   authUseCase.ClientUseCase
	tokenUseCase    authUseCase.TokenUseCase
	clientHandler   *authHTTP.ClientHandler
	tokenHandler    *authHTTP.TokenHandler

	// Identity
	agentRepo    identityUseCase.AgentRepository
	agentUseCase identityUseCase.AgentUseCase
	keyResolver  identityUseCase.KeyResolver
	agentHandler *identityHTTP.AgentHandler

	// Delegation
	delegationRepo      delegationUseCase.TokenRepository
	chainValidator      delegationUseCase.ChainValidator
	delegationIssuer    delegationUseCase.Issuer
	delegationRegistrar delegationUseCase.Registrar
	delegationHandler   *delegationHTTP.DelegationHandler

	// Revocation
	revocationRepo     revocationUseCase.RevocationRepository
	authorityResolver  revocationUseCase.AuthorityResolver
	revocationRegistry revocationUseCase.Registry
	revocationHandler  *revocationHTTP.RevocationHandler

	// Consent
	consentRepo      consentUseCase.ConsentRepository
	consentVerifier  consentUseCase.Verifier
	consentRegistrar consentUseCase.Registrar
	consentHandler   *consentHTTP.ConsentHandler

	// Audit
	auditRepo     auditUseCase.AuditRepository
	auditKeeper   auditService.KeyKeeper
	auditSink     auditUseCase.Sink
	auditVerifier auditUseCase.Verifier
	auditReader   auditUseCase.Reader
	auditHandler  *auditHTTP.AuditHandler

	// Envelope authorization
	replayGuard      *replay.Guard
	piiDetector      *pii.Detector
	authorizer       envelopeUseCase.Authorizer
	authorizeHandler *envelopeHTTP.AuthorizeHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                      sync.Mutex
	loggerInit              sync.Once
	dbInit                  sync.Once
	txManagerInit           sync.Once
	metricsProviderInit     sync.Once
	businessMetricsInit     sync.Once
	secretServiceInit       sync.Once
	tokenServiceInit        sync.Once
	clientRepoInit          sync.Once
	tokenRepoInit           sync.Once
	clientUseCaseInit       sync.Once
	tokenUseCaseInit        sync.Once
	clientHandlerInit       sync.Once
	tokenHandlerInit        sync.Once
	agentRepoInit           sync.Once
	agentUseCaseInit        sync.Once
	keyResolverInit         sync.Once
	agentHandlerInit        sync.Once
	delegationRepoInit      sync.Once
	chainValidatorInit      sync.Once
	delegationIssuerInit    sync.Once
	delegationRegistrarInit sync.Once
	delegationHandlerInit   sync.Once
	revocationRepoInit      sync.Once
	authorityResolverInit   sync.Once
	revocationRegistryInit  sync.Once
	revocationHandlerInit   sync.Once
	consentRepoInit         sync.Once
	consentVerifierInit     sync.Once
	consentRegistrarInit    sync.Once
	consentHandlerInit      sync.Once
	auditRepoInit           sync.Once
	auditKeeperInit         sync.Once
	auditSinkInit           sync.Once
	auditVerifierInit       sync.Once
	auditReaderInit         sync.Once
	auditHandlerInit        sync.Once
	replayGuardInit         sync.Once
	piiDetectorInit         sync.Once
	authorizerInit          sync.Once
	authorizeHandlerInit    sync.Once
	httpServerInit          sync.Once
	metricsServerInit       sync.Once
	initErrors              map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// HTTPServer returns the HTTP server instance with all routes configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server instance.
// Returns nil if metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP server if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	// Shutdown metrics server if initialized
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Shutdown metrics provider if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close the audit key keeper if initialized
	if c.auditKeeper != nil {
		if err := c.auditKeeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("audit key keeper close: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initHTTPServer creates the HTTP server with all routes and handlers wired.
func (c *Container) initHTTPServer() (*http.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get token use case for http server: %w", err)
	}

	tokenHandler, err := c.TokenHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get token handler for http server: %w", err)
	}

	clientHandler, err := c.ClientHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get client handler for http server: %w", err)
	}

	authorizeHandler, err := c.AuthorizeHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get authorize handler for http server: %w", err)
	}

	agentHandler, err := c.AgentHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get agent handler for http server: %w", err)
	}

	delegationHandler, err := c.DelegationHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get delegation handler for http server: %w", err)
	}

	revocationHandler, err := c.RevocationHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get revocation handler for http server: %w", err)
	}

	consentHandler, err := c.ConsentHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent handler for http server: %w", err)
	}

	auditHandler, err := c.AuditHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit handler for http server: %w", err)
	}

	var metricsProvider *metrics.Provider
	if c.config.MetricsEnabled {
		metricsProvider, err = c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
	server.SetupRouter(http.RouterConfig{
		Config:            c.config,
		TokenUseCase:      tokenUseCase,
		TokenService:      c.TokenService(),
		TokenHandler:      tokenHandler,
		ClientHandler:     clientHandler,
		AuthorizeHandler:  authorizeHandler,
		AgentHandler:      agentHandler,
		DelegationHandler: delegationHandler,
		RevocationHandler: revocationHandler,
		ConsentHandler:    consentHandler,
		AuditHandler:      auditHandler,
		MetricsProvider:   metricsProvider,
	})

	return server, nil
}

// initMetricsServer creates the metrics HTTP server. Returns nil when
// metrics are disabled.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(
		c.config.ServerHost,
		c.config.MetricsPort,
		c.Logger(),
		metricsProvider,
	), nil
}
