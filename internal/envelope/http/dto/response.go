package dto

import (
	envelopeUseCase "github.com/moltid/authcore/internal/envelope/usecase"
)

// AuthorizeResponse is the verdict returned to the relay.
type AuthorizeResponse struct {
	Allowed            bool   `json:"allowed"`
	ReasonCode         string `json:"reason_code,omitempty"`
	ResolvedCapability string `json:"resolved_capability,omitempty"`
}

// MapDecisionToResponse converts an authorization decision to its response DTO.
func MapDecisionToResponse(decision *envelopeUseCase.Decision) AuthorizeResponse {
	return AuthorizeResponse{
		Allowed:            decision.Allowed,
		ReasonCode:         decision.ReasonCode,
		ResolvedCapability: decision.ResolvedCapability,
	}
}
