/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal record envelope from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.
*/
package api

import (
	"time"

	"github.com/warp/venue-ledger/generic"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// UpsertRecordRequest creates or updates a record. PreviousPartitionKey is
// empty for a new record; for updates it is the partition the client last
// saw the record in, so the server can detect a month move.
type UpsertRecordRequest struct {
	ID                   string         `json:"id"`
	AnchorDate           string         `json:"anchorDate"`
	PreviousPartitionKey string         `json:"previousPartitionKey,omitempty"`
	Payload              map[string]any `json:"payload"`
}

// PromoteRequest turns an enquiry into a booking lead.
type PromoteRequest struct {
	EnquiryPartitionKey string `json:"enquiryPartitionKey"`
	FunctionDate        string `json:"functionDate"`
}

// TargetRequest persists the annual revenue target of a fiscal year.
type TargetRequest struct {
	FiscalYearStart int    `json:"fiscalYearStart"`
	Target          string `json:"target"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// RecordDTO is a record as clients see it. The audit trail is served by
// its own endpoint, not inlined here.
type RecordDTO struct {
	ID           string         `json:"id"`
	AnchorDate   string         `json:"anchorDate"`
	PartitionKey string         `json:"partitionKey"`
	Payload      map[string]any `json:"payload"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func toRecordDTO(rec generic.Record) RecordDTO {
	return RecordDTO{
		ID:           string(rec.ID),
		AnchorDate:   rec.AnchorDate.String(),
		PartitionKey: rec.PartitionKey,
		Payload:      rec.Payload,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

// AuditEntryDTO is one change set of a record's history.
type AuditEntryDTO struct {
	At      time.Time                      `json:"at"`
	Actor   generic.Actor                  `json:"actor"`
	Changes map[string]generic.FieldChange `json:"changes"`
}

func toAuditDTOs(entries []generic.AuditEntry) []AuditEntryDTO {
	out := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = AuditEntryDTO{At: e.At, Actor: e.Actor, Changes: e.Changes}
	}
	return out
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
