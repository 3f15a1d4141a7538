// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditHTTP "github.com/moltid/authcore/internal/audit/http"
	authDomain "github.com/moltid/authcore/internal/auth/domain"
	authHTTP "github.com/moltid/authcore/internal/auth/http"
	authService "github.com/moltid/authcore/internal/auth/service"
	authUseCase "github.com/moltid/authcore/internal/auth/usecase"
	"github.com/moltid/authcore/internal/config"
	consentHTTP "github.com/moltid/authcore/internal/consent/http"
	delegationHTTP "github.com/moltid/authcore/internal/delegation/http"
	envelopeHTTP "github.com/moltid/authcore/internal/envelope/http"
	identityHTTP "github.com/moltid/authcore/internal/identity/http"
	"github.com/moltid/authcore/internal/metrics"
	revocationHTTP "github.com/moltid/authcore/internal/revocation/http"
)

// Server represents the HTTP server.
type Server struct {
	db     *sql.DB
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server. Call SetupRouter before Start.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// RouterConfig carries the handlers and middleware dependencies for route setup.
type RouterConfig struct {
	Config *config.Config

	TokenUseCase authUseCase.TokenUseCase
	TokenService authService.TokenService

	TokenHandler      *authHTTP.TokenHandler
	ClientHandler     *authHTTP.ClientHandler
	AuthorizeHandler  *envelopeHTTP.AuthorizeHandler
	AgentHandler      *identityHTTP.AgentHandler
	DelegationHandler *delegationHTTP.DelegationHandler
	RevocationHandler *revocationHTTP.RevocationHandler
	ConsentHandler    *consentHTTP.ConsentHandler
	AuditHandler      *auditHTTP.AuditHandler

	MetricsProvider *metrics.Provider
}

// SetupRouter builds the gin router and registers all routes.
func (s *Server) SetupRouter(rc RouterConfig) {
	cfg := rc.Config

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if rc.MetricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(rc.MetricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	// Health and readiness endpoints
	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	// Token issuance is unauthenticated and gets its own IP-based limiter.
	token := router.Group("/v1/token")
	if cfg.RateLimitTokenEnabled {
		token.Use(authHTTP.TokenRateLimitMiddleware(
			cfg.RateLimitTokenRequestsPerSec,
			cfg.RateLimitTokenBurst,
			s.logger,
		))
	}
	token.POST("", rc.TokenHandler.IssueTokenHandler)

	// All remaining v1 endpoints require an authenticated client.
	v1 := router.Group("/v1")
	v1.Use(authHTTP.AuthenticationMiddleware(rc.TokenUseCase, rc.TokenService, s.logger))
	if cfg.RateLimitEnabled {
		v1.Use(authHTTP.RateLimitMiddleware(
			cfg.RateLimitRequestsPerSec,
			cfg.RateLimitBurst,
			s.logger,
		))
	}

	authorize := func(capability authDomain.Capability) gin.HandlerFunc {
		return authHTTP.AuthorizationMiddleware(capability, s.logger)
	}

	// Message authorization
	v1.POST("/authorize", authorize(authDomain.AuthorizeCapability), rc.AuthorizeHandler.AuthorizeHandler)

	// Client management
	v1.POST("/clients", authorize(authDomain.WriteCapability), rc.ClientHandler.CreateHandler)
	v1.GET("/clients", authorize(authDomain.ReadCapability), rc.ClientHandler.ListHandler)
	v1.GET("/clients/:id", authorize(authDomain.ReadCapability), rc.ClientHandler.GetHandler)
	v1.PUT("/clients/:id", authorize(authDomain.WriteCapability), rc.ClientHandler.UpdateHandler)
	v1.DELETE("/clients/:id", authorize(authDomain.DeleteCapability), rc.ClientHandler.DeleteHandler)
	v1.POST("/clients/:id/unlock", authorize(authDomain.WriteCapability), rc.ClientHandler.UnlockHandler)

	// Agent identities
	v1.POST("/agents", authorize(authDomain.WriteCapability), rc.AgentHandler.RegisterHandler)
	v1.GET("/agents/:id", authorize(authDomain.ReadCapability), rc.AgentHandler.GetHandler)
	v1.GET("/agents/did/:did", authorize(authDomain.ReadCapability), rc.AgentHandler.GetByDIDHandler)
	v1.POST("/agents/:id/rotate", authorize(authDomain.WriteCapability), rc.AgentHandler.RotateKeyHandler)
	v1.DELETE("/agents/:id", authorize(authDomain.DeleteCapability), rc.AgentHandler.DeactivateHandler)

	// Delegation tokens
	v1.POST("/delegations", authorize(authDomain.WriteCapability), rc.DelegationHandler.SubmitHandler)
	v1.GET("/delegations/:id", authorize(authDomain.ReadCapability), rc.DelegationHandler.GetHandler)

	// Revocations
	v1.POST("/revocations", authorize(authDomain.RevokeCapability), rc.RevocationHandler.CreateHandler)
	v1.GET("/revocations/:id", authorize(authDomain.ReadCapability), rc.RevocationHandler.GetHandler)
	v1.GET("/revocations/:id/status", authorize(authDomain.ReadCapability), rc.RevocationHandler.StatusHandler)

	// Consent tokens
	v1.POST("/consents", authorize(authDomain.WriteCapability), rc.ConsentHandler.RegisterHandler)
	v1.GET("/consents/:id", authorize(authDomain.ReadCapability), rc.ConsentHandler.GetHandler)

	// Audit records
	v1.GET("/audit-records", authorize(authDomain.ReadCapability), rc.AuditHandler.ListHandler)
	v1.GET("/audit-records/:id", authorize(authDomain.ReadCapability), rc.AuditHandler.GetHandler)

	s.router = router
}

// GetHandler returns the configured router as an http.Handler for testing
// purposes. Returns nil if SetupRouter has not been called.
func (s *Server) GetHandler() http.Handler {
	if s.router == nil {
		return nil
	}
	return s.router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic, checking
// database connectivity.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("readiness check failed", slog.String("error", err.Error()))
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}

// Start starts the HTTP server. SetupRouter must have been called first.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured: call SetupRouter before Start")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
