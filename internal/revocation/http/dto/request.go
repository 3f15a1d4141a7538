// Package dto provides data transfer objects for revocation intake and lookup.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	revocationDomain "github.com/moltid/authcore/internal/revocation/domain"
	customValidation "github.com/moltid/authcore/internal/validation"
)

// CreateRevocationRequest carries a signed revocation record for intake.
type CreateRevocationRequest struct {
	SubjectID          string    `json:"subject_id"`
	SubjectKind        string    `json:"subject_kind"`
	RevokedAt          time.Time `json:"revoked_at"`
	Reason             string    `json:"reason"`
	AuthoritySignature string    `json:"authority_signature"`
	RecoverySignatures []string  `json:"recovery_signatures"`
}

// Validate checks if the create revocation request is valid. Authority is the
// registry's concern; this only rejects structurally unusable records.
func (r *CreateRevocationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.SubjectID,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.SubjectKind,
			validation.Required,
			validation.In(
				string(revocationDomain.SubjectKindDelegation),
				string(revocationDomain.SubjectKindKey),
				string(revocationDomain.SubjectKindConsent),
			),
		),
		validation.Field(&r.RevokedAt,
			validation.Required,
		),
		validation.Field(&r.Reason,
			validation.Length(0, 500),
		),
	)
}

// ToDomain converts the request to a domain record.
func (r *CreateRevocationRequest) ToDomain() *revocationDomain.Record {
	return &revocationDomain.Record{
		SubjectID:          r.SubjectID,
		SubjectKind:        revocationDomain.SubjectKind(r.SubjectKind),
		RevokedAt:          r.RevokedAt,
		Reason:             r.Reason,
		AuthoritySignature: r.AuthoritySignature,
		RecoverySignatures: r.RecoverySignatures,
	}
}
