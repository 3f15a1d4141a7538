package dto

import (
	consentDomain "github.com/moltid/authcore/internal/consent/domain"
)

// ConsentResponse contains a stored consent token in wire form.
type ConsentResponse struct {
	ID           string   `json:"id"`
	SubjectTypes []string `json:"subject_types"`
	GrantedBy    string   `json:"granted_by"`
	Purpose      string   `json:"purpose"`
	Scope        string   `json:"scope,omitempty"`
	Expires      int64    `json:"expires"`
	Signature    string   `json:"signature"`
}

// MapTokenToResponse converts a domain consent token to its response DTO.
func MapTokenToResponse(token *consentDomain.Token) ConsentResponse {
	types := make([]string, 0, len(token.SubjectTypes))
	for _, t := range token.SubjectTypes {
		types = append(types, string(t))
	}
	return ConsentResponse{
		ID:           token.ID,
		SubjectTypes: types,
		GrantedBy:    token.GrantedBy,
		Purpose:      token.Purpose,
		Scope:        token.Scope,
		Expires:      token.Expires,
		Signature:    token.Signature,
	}
}
