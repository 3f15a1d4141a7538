// Package dto provides data transfer objects for agent management requests
// and responses.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/moltid/authcore/internal/capability"
	customValidation "github.com/moltid/authcore/internal/validation"
)

// RegisterAgentRequest contains the parameters for registering a new agent.
// The DID is derived from the public key, never supplied by the caller.
type RegisterAgentRequest struct {
	Name              string                  `json:"name"`
	Org               string                  `json:"org"`
	PublicKey         string                  `json:"public_key"`
	RootCapabilities  []capability.Capability `json:"root_capabilities"`
	RecoveryKeys      []string                `json:"recovery_keys"`
	RecoveryThreshold int                     `json:"recovery_threshold"`
}

// Validate checks if the register agent request is valid.
func (r *RegisterAgentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Org,
			validation.Length(0, 255),
		),
		validation.Field(&r.PublicKey,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.RecoveryKeys,
			validation.Each(customValidation.NotBlank),
		),
		validation.Field(&r.RecoveryThreshold,
			validation.Min(0),
			validation.Max(len(r.RecoveryKeys)),
		),
	)
}

// RotateKeyRequest contains the replacement public key for a key rotation.
type RotateKeyRequest struct {
	PublicKey string `json:"public_key"`
}

// Validate checks if the rotate key request is valid.
func (r *RotateKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PublicKey,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}
