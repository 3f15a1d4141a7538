package domain

import (
	"github.com/moltid/authcore/internal/errors"
)

// Identity errors.
var (
	// ErrAgentNotFound indicates no agent exists for the given id or DID.
	ErrAgentNotFound = errors.Wrap(errors.ErrNotFound, "agent not found")

	// ErrAgentAlreadyExists indicates an agent with the same DID is already
	// registered.
	ErrAgentAlreadyExists = errors.Wrap(errors.ErrConflict, "agent already exists")

	// ErrAgentInactive indicates the agent exists but has been deactivated.
	ErrAgentInactive = errors.Wrap(errors.ErrForbidden, "agent is inactive")

	// ErrKeyNotFound indicates no key record exists for the given key.
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "agent key not found")

	// ErrKeySuperseded indicates the presented key was rotated away and no
	// longer authenticates new messages.
	ErrKeySuperseded = errors.Wrap(errors.ErrForbidden, "agent key superseded")

	// ErrDIDMismatch indicates the presented key does not belong to the
	// claimed identity.
	ErrDIDMismatch = errors.Wrap(errors.ErrForbidden, "key does not match identity")
)
