package domain

import (
	"github.com/moltid/authcore/internal/errors"
)

// Delegation errors.
var (
	// ErrTokenNotFound indicates no token exists for the given id. On the
	// validation path a missing ancestor breaks the proof chain and denies
	// the request.
	ErrTokenNotFound = errors.Wrap(errors.ErrNotFound, "delegation token not found")

	// ErrTokenAlreadyExists indicates a token with the same id was already
	// stored.
	ErrTokenAlreadyExists = errors.Wrap(errors.ErrConflict, "delegation token already exists")
)
