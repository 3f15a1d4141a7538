package domain

import (
	"github.com/moltid/authcore/internal/errors"
)

// Consent errors.
var (
	// ErrTokenNotFound indicates no consent token exists for the given id.
	ErrTokenNotFound = errors.Wrap(errors.ErrNotFound, "consent token not found")

	// ErrTokenAlreadyExists indicates a consent token with the same id was
	// already stored.
	ErrTokenAlreadyExists = errors.Wrap(errors.ErrConflict, "consent token already exists")
)
