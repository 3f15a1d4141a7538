package dto

import (
	"time"

	revocationDomain "github.com/moltid/authcore/internal/revocation/domain"
)

// RevocationResponse contains a stored revocation record.
type RevocationResponse struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"subject_id"`
	SubjectKind string    `json:"subject_kind"`
	RevokedAt   time.Time `json:"revoked_at"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// StatusResponse answers the "is this id revoked" lookup.
type StatusResponse struct {
	SubjectID string `json:"subject_id"`
	Revoked   bool   `json:"revoked"`
}

// MapRecordToResponse converts a domain record to its response DTO. The
// signatures are intake material and are not echoed back.
func MapRecordToResponse(record *revocationDomain.Record) RevocationResponse {
	return RevocationResponse{
		ID:          record.ID.String(),
		SubjectID:   record.SubjectID,
		SubjectKind: string(record.SubjectKind),
		RevokedAt:   record.RevokedAt,
		Reason:      record.Reason,
		CreatedAt:   record.CreatedAt,
	}
}
