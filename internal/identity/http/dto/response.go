package dto

import (
	"time"

	"github.com/moltid/authcore/internal/capability"
	identityDomain "github.com/moltid/authcore/internal/identity/domain"
)

// AgentResponse contains agent information returned by the API. Recovery keys
// are included so operators can confirm the configured recovery set; there is
// nothing secret about a public key.
type AgentResponse struct {
	ID                string                  `json:"id"`
	DID               string                  `json:"did"`
	Name              string                  `json:"name"`
	Org               string                  `json:"org,omitempty"`
	PublicKey         string                  `json:"public_key"`
	IsActive          bool                    `json:"is_active"`
	RootCapabilities  []capability.Capability `json:"root_capabilities"`
	RecoveryKeys      []string                `json:"recovery_keys,omitempty"`
	RecoveryThreshold int                     `json:"recovery_threshold,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// MapAgentToResponse converts a domain agent to its response DTO.
func MapAgentToResponse(agent *identityDomain.Agent) AgentResponse {
	return AgentResponse{
		ID:                agent.ID.String(),
		DID:               agent.DID,
		Name:              agent.Name,
		Org:               agent.Org,
		PublicKey:         agent.PublicKey,
		IsActive:          agent.IsActive,
		RootCapabilities:  agent.RootCapabilities,
		RecoveryKeys:      agent.RecoveryKeys,
		RecoveryThreshold: agent.RecoveryThreshold,
		CreatedAt:         agent.CreatedAt,
		UpdatedAt:         agent.UpdatedAt,
	}
}
