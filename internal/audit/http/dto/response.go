// Package dto provides data transfer objects for audit record inspection.
package dto

import (
	"time"

	auditDomain "github.com/moltid/authcore/internal/audit/domain"
)

// RecordResponse contains a stored audit record. The HMAC signature is not
// exposed; integrity checks run through the offline verification command.
type RecordResponse struct {
	ID                 string    `json:"id"`
	MessageID          string    `json:"message_id"`
	Sender             string    `json:"sender"`
	Operation          string    `json:"operation"`
	Verdict            string    `json:"verdict"`
	ReasonCode         string    `json:"reason_code,omitempty"`
	ResolvedCapability string    `json:"resolved_capability,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// ListRecordsResponse contains a paginated list of audit records.
type ListRecordsResponse struct {
	Data []RecordResponse `json:"data"`
}

// MapRecordToResponse converts a domain audit record to its response DTO.
func MapRecordToResponse(record *auditDomain.Record) RecordResponse {
	return RecordResponse{
		ID:                 record.ID.String(),
		MessageID:          record.MessageID,
		Sender:             record.Sender,
		Operation:          record.Operation,
		Verdict:            string(record.Verdict),
		ReasonCode:         record.ReasonCode,
		ResolvedCapability: record.ResolvedCapability,
		CreatedAt:          record.CreatedAt,
	}
}

// MapRecordsToListResponse converts domain records to a list response.
func MapRecordsToListResponse(records []*auditDomain.Record) ListRecordsResponse {
	data := make([]RecordResponse, 0, len(records))
	for _, record := range records {
		data = append(data, MapRecordToResponse(record))
	}
	return ListRecordsResponse{Data: data}
}
