package domain

import (
	"github.com/moltid/authcore/internal/errors"
)

// Authentication errors.
var (
	// ErrClientNotFound indicates a client with the specified ID was not found.
	ErrClientNotFound = errors.Wrap(errors.ErrNotFound, "client not found")

	// ErrTokenNotFound indicates a token with the specified ID was not found.
	ErrTokenNotFound = errors.Wrap(errors.ErrNotFound, "token not found")

	// ErrInvalidCredentials indicates the client id, secret, or token did not
	// authenticate. Deliberately generic to prevent enumeration.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrClientInactive indicates the client exists but has been deactivated.
	ErrClientInactive = errors.Wrap(errors.ErrForbidden, "client is inactive")

	// ErrClientLocked indicates the client is locked out after too many
	// failed authentication attempts.
	ErrClientLocked = errors.Wrap(errors.ErrLocked, "client is locked")
)
