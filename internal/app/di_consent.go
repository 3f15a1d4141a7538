package app

import (
	"fmt"

	consentHTTP "github.com/moltid/authcore/internal/consent/http"
	consentRepository "github.com/moltid/authcore/internal/consent/repository"
	consentUseCase "github.com/moltid/authcore/internal/consent/usecase"
	"github.com/moltid/authcore/internal/cryptoutil"
)

// ConsentRepository returns the consent repository based on database driver.
func (c *Container) ConsentRepository() (consentUseCase.ConsentRepository, error) {
	var err error
	c.consentRepoInit.Do(func() {
		c.consentRepo, err = c.initConsentRepository()
		if err != nil {
			c.initErrors["consentRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["consentRepo"]; exists {
		return nil, storedErr
	}
	return c.consentRepo, nil
}

// ConsentVerifier returns the consent token verifier.
func (c *Container) ConsentVerifier() (consentUseCase.Verifier, error) {
	var err error
	c.consentVerifierInit.Do(func() {
		c.consentVerifier, err = c.initConsentVerifier()
		if err != nil {
			c.initErrors["consentVerifier"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["consentVerifier"]; exists {
		return nil, storedErr
	}
	return c.consentVerifier, nil
}

// ConsentRegistrar returns the consent token intake registrar.
func (c *Container) ConsentRegistrar() (consentUseCase.Registrar, error) {
	var err error
	c.consentRegistrarInit.Do(func() {
		c.consentRegistrar, err = c.initConsentRegistrar()
		if err != nil {
			c.initErrors["consentRegistrar"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["consentRegistrar"]; exists {
		return nil, storedErr
	}
	return c.consentRegistrar, nil
}

// ConsentHandler returns the HTTP handler for consent token operations.
func (c *Container) ConsentHandler() (*consentHTTP.ConsentHandler, error) {
	var err error
	c.consentHandlerInit.Do(func() {
		c.consentHandler, err = c.initConsentHandler()
		if err != nil {
			c.initErrors["consentHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["consentHandler"]; exists {
		return nil, storedErr
	}
	return c.consentHandler, nil
}

// initConsentRepository creates the consent repository based on the database driver.
func (c *Container) initConsentRepository() (consentUseCase.ConsentRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for consent repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return consentRepository.NewPostgreSQLConsentRepository(db), nil
	case "mysql":
		return consentRepository.NewMySQLConsentRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initConsentVerifier creates the consent verifier with all its dependencies.
func (c *Container) initConsentVerifier() (consentUseCase.Verifier, error) {
	repo, err := c.ConsentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent repository for consent verifier: %w", err)
	}

	revocationRegistry, err := c.RevocationRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get revocation registry for consent verifier: %w", err)
	}

	keyResolver, err := c.KeyResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to get key resolver for consent verifier: %w", err)
	}

	return consentUseCase.NewVerifier(repo, revocationRegistry, keyResolver, cryptoutil.NewAdapter()), nil
}

// initConsentRegistrar creates the consent registrar.
func (c *Container) initConsentRegistrar() (consentUseCase.Registrar, error) {
	repo, err := c.ConsentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent repository for consent registrar: %w", err)
	}

	verifier, err := c.ConsentVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent verifier for consent registrar: %w", err)
	}

	return consentUseCase.NewRegistrar(repo, verifier), nil
}

// initConsentHandler creates the consent HTTP handler.
func (c *Container) initConsentHandler() (*consentHTTP.ConsentHandler, error) {
	registrar, err := c.ConsentRegistrar()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent registrar for consent handler: %w", err)
	}

	return consentHTTP.NewConsentHandler(registrar, c.Logger()), nil
}
