package app

import (
	"fmt"

	authHTTP "github.com/moltid/authcore/internal/auth/http"
	authRepository "github.com/moltid/authcore/internal/auth/repository"
	authService "github.com/moltid/authcore/internal/auth/service"
	authUseCase "github.com/moltid/authcore/internal/auth/usecase"
)

// SecretService returns the secret service for authentication operations.
func (c *Container) SecretService() authService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = authService.NewSecretService()
	})
	return c.secretService
}

// TokenService returns the token service for authentication operations.
func (c *Container) TokenService() authService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = authService.NewTokenService()
	})
	return c.tokenService
}

// ClientRepository returns the client repository based on database driver.
func (c *Container) ClientRepository() (authUseCase.ClientRepository, error) {
	var err error
	c.clientRepoInit.Do(func() {
		c.clientRepo, err = c.initClientRepository()
		if err != nil {
			c.initErrors["clientRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["clientRepo"]; exists {
		return nil, storedErr
	}
	return c.clientRepo, nil
}

// TokenRepository returns the token repository based on database driver.
func (c *Container) TokenRepository() (authUseCase.TokenRepository, error) {
	var err error
	c.tokenRepoInit.Do(func() {
		c.tokenRepo, err = c.initTokenRepository()
		if err != nil {
			c.initErrors["tokenRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenRepo"]; exists {
		return nil, storedErr
	}
	return c.tokenRepo, nil
}

// ClientUseCase returns the client use case.
func (c *Container) ClientUseCase() (authUseCase.ClientUseCase, error) {
	var err error
	c.clientUseCaseInit.Do(func() {
		c.clientUseCase, err = c.initClientUseCase()
		if err != nil {
			c.initErrors["clientUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["clientUseCase"]; exists {
		return nil, storedErr
	}
	return c.clientUseCase, nil
}

// TokenUseCase returns the token use case.
func (c *Container) TokenUseCase() (authUseCase.TokenUseCase, error) {
	var err error
	c.tokenUseCaseInit.Do(func() {
		c.tokenUseCase, err = c.initTokenUseCase()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.tokenUseCase, nil
}

// ClientHandler returns the HTTP handler for client management operations.
func (c *Container) ClientHandler() (*authHTTP.ClientHandler, error) {
	var err error
	c.clientHandlerInit.Do(func() {
		c.clientHandler, err = c.initClientHandler()
		if err != nil {
			c.initErrors["clientHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["clientHandler"]; exists {
		return nil, storedErr
	}
	return c.clientHandler, nil
}

// TokenHandler returns the HTTP handler for token operations.
func (c *Container) TokenHandler() (*authHTTP.TokenHandler, error) {
	var err error
	c.tokenHandlerInit.Do(func() {
		c.tokenHandler, err = c.initTokenHandler()
		if err != nil {
			c.initErrors["tokenHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenHandler"]; exists {
		return nil, storedErr
	}
	return c.tokenHandler, nil
}

// initClientRepository creates the client repository based on the database driver.
func (c *Container) initClientRepository() (authUseCase.ClientRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for client repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return authRepository.NewPostgreSQLClientRepository(db), nil
	case "mysql":
		return authRepository.NewMySQLClientRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initTokenRepository creates the token repository based on the database driver.
func (c *Container) initTokenRepository() (authUseCase.TokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for token repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return authRepository.NewPostgreSQLTokenRepository(db), nil
	case "mysql":
		return authRepository.NewMySQLTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initClientUseCase creates the client use case with all its dependencies.
func (c *Container) initClientUseCase() (authUseCase.ClientUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for client use case: %w", err)
	}

	clientRepo, err := c.ClientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client repository for client use case: %w", err)
	}

	baseUseCase := authUseCase.NewClientUseCase(txManager, clientRepo, c.SecretService())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for client use case: %w", err)
		}
		return authUseCase.NewClientUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initTokenUseCase creates the token use case with all its dependencies.
func (c *Container) initTokenUseCase() (authUseCase.TokenUseCase, error) {
	clientRepo, err := c.ClientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client repository for token use case: %w", err)
	}

	tokenRepo, err := c.TokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token repository for token use case: %w", err)
	}

	baseUseCase := authUseCase.NewTokenUseCase(
		c.config,
		clientRepo,
		tokenRepo,
		c.SecretService(),
		c.TokenService(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for token use case: %w", err)
		}
		return authUseCase.NewTokenUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initClientHandler creates the client HTTP handler with all its dependencies.
func (c *Container) initClientHandler() (*authHTTP.ClientHandler, error) {
	clientUseCase, err := c.ClientUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get client use case for client handler: %w", err)
	}

	return authHTTP.NewClientHandler(clientUseCase, c.Logger()), nil
}

// initTokenHandler creates the token HTTP handler with all its dependencies.
func (c *Container) initTokenHandler() (*authHTTP.TokenHandler, error) {
	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get token use case for token handler: %w", err)
	}

	return authHTTP.NewTokenHandler(tokenUseCase, c.Logger()), nil
}
