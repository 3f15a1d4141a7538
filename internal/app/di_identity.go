package app

import (
	"fmt"

	identityHTTP "github.com/moltid/authcore/internal/identity/http"
	identityRepository "github.com/moltid/authcore/internal/identity/repository"
	identityUseCase "github.com/moltid/authcore/internal/identity/usecase"
)

// AgentRepository returns the agent repository based on database driver.
func (c *Container) AgentRepository() (identityUseCase.AgentRepository, error) {
	var err error
	c.agentRepoInit.Do(func() {
		c.agentRepo, err = c.initAgentRepository()
		if err != nil {
			c.initErrors["agentRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["agentRepo"]; exists {
		return nil, storedErr
	}
	return c.agentRepo, nil
}

// AgentUseCase returns the agent use case.
func (c *Container) AgentUseCase() (identityUseCase.AgentUseCase, error) {
	var err error
	c.agentUseCaseInit.Do(func() {
		c.agentUseCase, err = c.initAgentUseCase()
		if err != nil {
			c.initErrors["agentUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["agentUseCase"]; exists {
		return nil, storedErr
	}
	return c.agentUseCase, nil
}

// KeyResolver returns the DID key resolver shared by the delegation and
// envelope validators.
func (c *Container) KeyResolver() (identityUseCase.KeyResolver, error) {
	var err error
	c.keyResolverInit.Do(func() {
		c.keyResolver, err = c.initKeyResolver()
		if err != nil {
			c.initErrors["keyResolver"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyResolver"]; exists {
		return nil, storedErr
	}
	return c.keyResolver, nil
}

// AgentHandler returns the HTTP handler for agent identity operations.
func (c *Container) AgentHandler() (*identityHTTP.AgentHandler, error) {
	var err error
	c.agentHandlerInit.Do(func() {
		c.agentHandler, err = c.initAgentHandler()
		if err != nil {
			c.initErrors["agentHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["agentHandler"]; exists {
		return nil, storedErr
	}
	return c.agentHandler, nil
}

// initAgentRepository creates the agent repository based on the database driver.
func (c *Container) initAgentRepository() (identityUseCase.AgentRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for agent repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return identityRepository.NewPostgreSQLAgentRepository(db), nil
	case "mysql":
		return identityRepository.NewMySQLAgentRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAgentUseCase creates the agent use case with all its dependencies.
func (c *Container) initAgentUseCase() (identityUseCase.AgentUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for agent use case: %w", err)
	}

	agentRepo, err := c.AgentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get agent repository for agent use case: %w", err)
	}

	return identityUseCase.NewAgentUseCase(txManager, agentRepo), nil
}

// initKeyResolver creates the key resolver over the agent repository.
func (c *Container) initKeyResolver() (identityUseCase.KeyResolver, error) {
	agentRepo, err := c.AgentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get agent repository for key resolver: %w", err)
	}

	return identityUseCase.NewKeyResolver(agentRepo), nil
}

// initAgentHandler creates the agent HTTP handler with all its dependencies.
func (c *Container) initAgentHandler() (*identityHTTP.AgentHandler, error) {
	agentUseCase, err := c.AgentUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get agent use case for agent handler: %w", err)
	}

	return identityHTTP.NewAgentHandler(agentUseCase, c.Logger()), nil
}
