package app

import (
	"context"
	"fmt"

	auditHTTP "github.com/moltid/authcore/internal/audit/http"
	auditRepository "github.com/moltid/authcore/internal/audit/repository"
	auditService "github.com/moltid/authcore/internal/audit/service"
	auditUseCase "github.com/moltid/authcore/internal/audit/usecase"
)

// AuditRepository returns the audit record repository based on database driver.
func (c *Container) AuditRepository() (auditUseCase.AuditRepository, error) {
	var err error
	c.auditRepoInit.Do(func() {
		c.auditRepo, err = c.initAuditRepository()
		if err != nil {
			c.initErrors["auditRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditRepo"]; exists {
		return nil, storedErr
	}
	return c.auditRepo, nil
}

// AuditKeyKeeper returns the KMS-backed keeper holding the audit root key.
func (c *Container) AuditKeyKeeper() (auditService.KeyKeeper, error) {
	var err error
	c.auditKeeperInit.Do(func() {
		c.auditKeeper, err = c.initAuditKeyKeeper()
		if err != nil {
			c.initErrors["auditKeeper"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditKeeper"]; exists {
		return nil, storedErr
	}
	return c.auditKeeper, nil
}

// AuditSink returns the audit sink that signs and stores verdict records.
func (c *Container) AuditSink() (auditUseCase.Sink, error) {
	var err error
	c.auditSinkInit.Do(func() {
		c.auditSink, err = c.initAuditSink()
		if err != nil {
			c.initErrors["auditSink"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditSink"]; exists {
		return nil, storedErr
	}
	return c.auditSink, nil
}

// AuditVerifier returns the audit log integrity verifier.
func (c *Container) AuditVerifier() (auditUseCase.Verifier, error) {
	var err error
	c.auditVerifierInit.Do(func() {
		c.auditVerifier, err = c.initAuditVerifier()
		if err != nil {
			c.initErrors["auditVerifier"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditVerifier"]; exists {
		return nil, storedErr
	}
	return c.auditVerifier, nil
}

// AuditReader returns the audit record reader.
func (c *Container) AuditReader() (auditUseCase.Reader, error) {
	var err error
	c.auditReaderInit.Do(func() {
		c.auditReader, err = c.initAuditReader()
		if err != nil {
			c.initErrors["auditReader"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditReader"]; exists {
		return nil, storedErr
	}
	return c.auditReader, nil
}

// AuditHandler returns the HTTP handler for audit record operations.
func (c *Container) AuditHandler() (*auditHTTP.AuditHandler, error) {
	var err error
	c.auditHandlerInit.Do(func() {
		c.auditHandler, err = c.initAuditHandler()
		if err != nil {
			c.initErrors["auditHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditHandler"]; exists {
		return nil, storedErr
	}
	return c.auditHandler, nil
}

// initAuditRepository creates the audit repository based on the database driver.
func (c *Container) initAuditRepository() (auditUseCase.AuditRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return auditRepository.NewPostgreSQLAuditRepository(db), nil
	case "mysql":
		return auditRepository.NewMySQLAuditRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuditKeyKeeper opens the KMS keeper configured for the audit root key.
func (c *Container) initAuditKeyKeeper() (auditService.KeyKeeper, error) {
	if c.config.KMSKeyURI == "" {
		return nil, fmt.Errorf("KMS_KEY_URI is required for audit record signing")
	}
	if c.config.AuditRootKeyCiphertext == "" {
		return nil, fmt.Errorf("AUDIT_ROOT_KEY is required for audit record signing")
	}

	keeper, err := auditService.NewKMSKeyKeeper(
		context.Background(),
		c.config.KMSKeyURI,
		c.config.AuditRootKeyCiphertext,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit key keeper: %w", err)
	}
	return keeper, nil
}

// initAuditSink creates the audit sink with all its dependencies.
func (c *Container) initAuditSink() (auditUseCase.Sink, error) {
	repo, err := c.AuditRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit repository for audit sink: %w", err)
	}

	keeper, err := c.AuditKeyKeeper()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit key keeper for audit sink: %w", err)
	}

	return auditUseCase.NewSink(repo, auditService.NewSigner(), keeper), nil
}

// initAuditVerifier creates the audit integrity verifier.
func (c *Container) initAuditVerifier() (auditUseCase.Verifier, error) {
	repo, err := c.AuditRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit repository for audit verifier: %w", err)
	}

	keeper, err := c.AuditKeyKeeper()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit key keeper for audit verifier: %w", err)
	}

	return auditUseCase.NewVerifier(repo, auditService.NewSigner(), keeper), nil
}

// initAuditReader creates the audit record reader.
func (c *Container) initAuditReader() (auditUseCase.Reader, error) {
	repo, err := c.AuditRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit repository for audit reader: %w", err)
	}

	return auditUseCase.NewReader(repo), nil
}

// initAuditHandler creates the audit HTTP handler.
func (c *Container) initAuditHandler() (*auditHTTP.AuditHandler, error) {
	reader, err := c.AuditReader()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit reader for audit handler: %w", err)
	}

	return auditHTTP.NewAuditHandler(reader, c.Logger()), nil
}
