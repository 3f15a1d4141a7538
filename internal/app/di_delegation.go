package app

import (
	"fmt"

	"github.com/moltid/authcore/internal/cryptoutil"
	delegationHTTP "github.com/moltid/authcore/internal/delegation/http"
	delegationRepository "github.com/moltid/authcore/internal/delegation/repository"
	delegationUseCase "github.com/moltid/authcore/internal/delegation/usecase"
)

// DelegationTokenRepository returns the delegation token repository based on
// database driver.
func (c *Container) DelegationTokenRepository() (delegationUseCase.TokenRepository, error) {
	var err error
	c.delegationRepoInit.Do(func() {
		c.delegationRepo, err = c.initDelegationTokenRepository()
		if err != nil {
			c.initErrors["delegationRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["delegationRepo"]; exists {
		return nil, storedErr
	}
	return c.delegationRepo, nil
}

// ChainValidator returns the delegation chain validator.
func (c *Container) ChainValidator() (delegationUseCase.ChainValidator, error) {
	var err error
	c.chainValidatorInit.Do(func() {
		c.chainValidator, err = c.initChainValidator()
		if err != nil {
			c.initErrors["chainValidator"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["chainValidator"]; exists {
		return nil, storedErr
	}
	return c.chainValidator, nil
}

// DelegationIssuer returns the delegation token issuer.
func (c *Container) DelegationIssuer() (delegationUseCase.Issuer, error) {
	var err error
	c.delegationIssuerInit.Do(func() {
		c.delegationIssuer, err = c.initDelegationIssuer()
		if err != nil {
			c.initErrors["delegationIssuer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["delegationIssuer"]; exists {
		return nil, storedErr
	}
	return c.delegationIssuer, nil
}

// DelegationRegistrar returns the delegation token intake registrar.
func (c *Container) DelegationRegistrar() (delegationUseCase.Registrar, error) {
	var err error
	c.delegationRegistrarInit.Do(func() {
		c.delegationRegistrar, err = c.initDelegationRegistrar()
		if err != nil {
			c.initErrors["delegationRegistrar"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["delegationRegistrar"]; exists {
		return nil, storedErr
	}
	return c.delegationRegistrar, nil
}

// DelegationHandler returns the HTTP handler for delegation token operations.
func (c *Container) DelegationHandler() (*delegationHTTP.DelegationHandler, error) {
	var err error
	c.delegationHandlerInit.Do(func() {
		c.delegationHandler, err = c.initDelegationHandler()
		if err != nil {
			c.initErrors["delegationHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["delegationHandler"]; exists {
		return nil, storedErr
	}
	return c.delegationHandler, nil
}

// initDelegationTokenRepository creates the delegation token repository based
// on the database driver.
func (c *Container) initDelegationTokenRepository() (delegationUseCase.TokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for delegation token repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return delegationRepository.NewPostgreSQLTokenRepository(db), nil
	case "mysql":
		return delegationRepository.NewMySQLTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initChainValidator creates the chain validator with all its dependencies.
func (c *Container) initChainValidator() (delegationUseCase.ChainValidator, error) {
	tokens, err := c.DelegationTokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get delegation token repository for chain validator: %w", err)
	}

	revocationRegistry, err := c.RevocationRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get revocation registry for chain validator: %w", err)
	}

	keyResolver, err := c.KeyResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to get key resolver for chain validator: %w", err)
	}

	return delegationUseCase.NewChainValidator(
		tokens,
		revocationRegistry,
		keyResolver,
		cryptoutil.NewAdapter(),
		delegationUseCase.ChainValidatorConfig{
			MaxDepth: c.config.MaxDelegationDepth,
			Timeout:  c.config.ChainValidationTimeout,
		},
	), nil
}

// initDelegationIssuer creates the delegation token issuer.
func (c *Container) initDelegationIssuer() (delegationUseCase.Issuer, error) {
	tokens, err := c.DelegationTokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get delegation token repository for issuer: %w", err)
	}

	validator, err := c.ChainValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to get chain validator for issuer: %w", err)
	}

	return delegationUseCase.NewIssuer(tokens, validator, cryptoutil.NewAdapter()), nil
}

// initDelegationRegistrar creates the delegation token registrar.
func (c *Container) initDelegationRegistrar() (delegationUseCase.Registrar, error) {
	tokens, err := c.DelegationTokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get delegation token repository for registrar: %w", err)
	}

	validator, err := c.ChainValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to get chain validator for registrar: %w", err)
	}

	return delegationUseCase.NewRegistrar(tokens, validator), nil
}

// initDelegationHandler creates the delegation HTTP handler.
func (c *Container) initDelegationHandler() (*delegationHTTP.DelegationHandler, error) {
	registrar, err := c.DelegationRegistrar()
	if err != nil {
		return nil, fmt.Errorf("failed to get delegation registrar for delegation handler: %w", err)
	}

	return delegationHTTP.NewDelegationHandler(registrar, c.Logger()), nil
}
