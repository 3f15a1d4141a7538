package domain

import (
	"github.com/moltid/authcore/internal/errors"
)

// Revocation errors.
var (
	// ErrRecordNotFound indicates no revocation record exists for the id.
	ErrRecordNotFound = errors.Wrap(errors.ErrNotFound, "revocation record not found")

	// ErrUnknownSubject indicates the subject of a revocation request could
	// not be resolved to any token or key.
	ErrUnknownSubject = errors.Wrap(errors.ErrNotFound, "revocation subject not found")
)
