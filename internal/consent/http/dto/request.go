// Package dto provides data transfer objects for consent token registration
// and lookup.
package dto

import (
	validation "github.com/jellydator/validation"

	consentDomain "github.com/moltid/authcore/internal/consent/domain"
	"github.com/moltid/authcore/internal/pii"
	customValidation "github.com/moltid/authcore/internal/validation"
)

// RegisterConsentRequest carries a signed consent token for registration.
// Field names follow the token wire format.
type RegisterConsentRequest struct {
	ID           string   `json:"id"`
	SubjectTypes []string `json:"subject_types"`
	GrantedBy    string   `json:"granted_by"`
	Purpose      string   `json:"purpose"`
	Scope        string   `json:"scope"`
	Expires      int64    `json:"expires"`
	Signature    string   `json:"signature"`
}

// Validate checks if the register consent request is valid.
func (r *RegisterConsentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.SubjectTypes,
			validation.Required,
		),
		validation.Field(&r.GrantedBy,
			validation.Required,
			customValidation.DID,
		),
		validation.Field(&r.Purpose,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 500),
		),
		validation.Field(&r.Expires,
			validation.Required,
			validation.Min(1),
		),
		validation.Field(&r.Signature,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// ToDomain converts the request to a domain consent token.
func (r *RegisterConsentRequest) ToDomain() *consentDomain.Token {
	types := make([]pii.Type, 0, len(r.SubjectTypes))
	for _, t := range r.SubjectTypes {
		types = append(types, pii.Type(t))
	}
	return &consentDomain.Token{
		ID:           r.ID,
		SubjectTypes: types,
		GrantedBy:    r.GrantedBy,
		Purpose:      r.Purpose,
		Scope:        r.Scope,
		Expires:      r.Expires,
		Signature:    r.Signature,
	}
}
