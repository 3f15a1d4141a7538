package app

import (
	"fmt"

	"github.com/moltid/authcore/internal/cryptoutil"
	revocationHTTP "github.com/moltid/authcore/internal/revocation/http"
	revocationRepository "github.com/moltid/authcore/internal/revocation/repository"
	revocationUseCase "github.com/moltid/authcore/internal/revocation/usecase"
)

// RevocationRepository returns the revocation repository based on database driver.
func (c *Container) RevocationRepository() (revocationUseCase.RevocationRepository, error) {
	var err error
	c.revocationRepoInit.Do(func() {
		c.revocationRepo, err = c.initRevocationRepository()
		if err != nil {
			c.initErrors["revocationRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["revocationRepo"]; exists {
		return nil, storedErr
	}
	return c.revocationRepo, nil
}

// AuthorityResolver returns the revocation authority resolver.
func (c *Container) AuthorityResolver() (revocationUseCase.AuthorityResolver, error) {
	var err error
	c.authorityResolverInit.Do(func() {
		c.authorityResolver, err = c.initAuthorityResolver()
		if err != nil {
			c.initErrors["authorityResolver"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authorityResolver"]; exists {
		return nil, storedErr
	}
	return c.authorityResolver, nil
}

// RevocationRegistry returns the revocation registry.
func (c *Container) RevocationRegistry() (revocationUseCase.Registry, error) {
	var err error
	c.revocationRegistryInit.Do(func() {
		c.revocationRegistry, err = c.initRevocationRegistry()
		if err != nil {
			c.initErrors["revocationRegistry"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["revocationRegistry"]; exists {
		return nil, storedErr
	}
	return c.revocationRegistry, nil
}

// RevocationHandler returns the HTTP handler for revocation operations.
func (c *Container) RevocationHandler() (*revocationHTTP.RevocationHandler, error) {
	var err error
	c.revocationHandlerInit.Do(func() {
		c.revocationHandler, err = c.initRevocationHandler()
		if err != nil {
			c.initErrors["revocationHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["revocationHandler"]; exists {
		return nil, storedErr
	}
	return c.revocationHandler, nil
}

// initRevocationRepository creates the revocation repository based on the
// database driver.
func (c *Container) initRevocationRepository() (revocationUseCase.RevocationRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for revocation repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return revocationRepository.NewPostgreSQLRevocationRepository(db), nil
	case "mysql":
		return revocationRepository.NewMySQLRevocationRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuthorityResolver creates the authority resolver over the three
// subject stores.
func (c *Container) initAuthorityResolver() (revocationUseCase.AuthorityResolver, error) {
	tokens, err := c.DelegationTokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get delegation token repository for authority resolver: %w", err)
	}

	consents, err := c.ConsentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get consent repository for authority resolver: %w", err)
	}

	agents, err := c.AgentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get agent repository for authority resolver: %w", err)
	}

	keys, err := c.KeyResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to get key resolver for authority resolver: %w", err)
	}

	return revocationUseCase.NewAuthorityResolver(tokens, consents, agents, keys), nil
}

// initRevocationRegistry creates the revocation registry.
func (c *Container) initRevocationRegistry() (revocationUseCase.Registry, error) {
	repo, err := c.RevocationRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get revocation repository for revocation registry: %w", err)
	}

	resolver, err := c.AuthorityResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to get authority resolver for revocation registry: %w", err)
	}

	return revocationUseCase.NewRegistry(repo, resolver, cryptoutil.NewAdapter()), nil
}

// initRevocationHandler creates the revocation HTTP handler.
func (c *Container) initRevocationHandler() (*revocationHTTP.RevocationHandler, error) {
	registry, err := c.RevocationRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get revocation registry for revocation handler: %w", err)
	}

	return revocationHTTP.NewRevocationHandler(registry, c.Logger()), nil
}
