/*
Package generic provides the core month-partitioned record engine.

PURPOSE:
  This package contains domain-agnostic types and algorithms for storing
  date-anchored business records in partition documents keyed by month.
  Whether the record is an enquiry, a booking lead, or a money receipt,
  the same engine handles partition placement, migration between months,
  and per-record audit trails.

KEY CONCEPTS IN THIS FILE (types.go):
  - Record: The envelope every stored payload travels in
  - Actor: Who performed a mutation (explicit, never ambient)
  - AuditEntry: A timestamped field-level diff appended on every change
  - Collection/RecordID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Opaque payloads: Business fields live in an open map; the engine
     never assumes a payload field is present
  2. Envelope ownership: id, anchor date, cached partition key, audit
     trail and timestamps belong to the engine, never to the payload
  3. Explicit identity: Every mutation carries an Actor; there is no
     ambient "current user"

USAGE:
  rec := generic.NewRecord("enq-1", generic.NewTimePoint(2025, time.March, 30),
      map[string]any{"client": "Mehta", "amount": "12000"})

SEE ALSO:
  - partition.go: Date -> partition key mapping
  - store.go: Persistence of records inside partition documents
  - migrate.go: Keeping placement consistent with the anchor date
*/
package generic

import (
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// Collection names a set of partitions (e.g. "enquiries", "leads", "receipts").
// A record id appears in at most one partition of its collection at any time.
type Collection string

// RecordID is unique within a collection and stable across the record's life.
type RecordID string

// =============================================================================
// ACTOR - Explicit mutation identity
// =============================================================================

// Actor identifies who performed a mutation. It is passed explicitly into
// every write operation; the engine has no notion of a logged-in user.
type Actor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// =============================================================================
// AUDIT TRAIL - Embedded in the record, never a separate collection
// =============================================================================

// FieldChange records one field's transition in a single mutation.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// AuditEntry is one timestamped, attributed change set. Entries are stored
// in insertion order on the record; display ordering is the caller's concern.
type AuditEntry struct {
	At      time.Time              `json:"at"`
	Actor   Actor                  `json:"actor"`
	Changes map[string]FieldChange `json:"changes"`
}

// =============================================================================
// RECORD - Envelope around an opaque business payload
// =============================================================================

// Record is the unit of storage. The envelope fields are owned by the engine:
// timestamps are set by the store, PartitionKey is the cached result of
// PartitionKeyFor(AnchorDate) as of the last write so migration can detect
// drift without recomputing from stale reads.
type Record struct {
	ID           RecordID       `json:"id"`
	AnchorDate   TimePoint      `json:"anchorDate"`
	PartitionKey string         `json:"partitionKey"`
	Payload      map[string]any `json:"payload"`
	Audit        []AuditEntry   `json:"audit,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// NewRecord builds a record envelope around a payload. The partition key is
// cached immediately; timestamps are assigned by the store on first Put.
func NewRecord(id RecordID, anchor TimePoint, payload map[string]any) Record {
	if payload == nil {
		payload = map[string]any{}
	}
	return Record{
		ID:           id,
		AnchorDate:   anchor,
		PartitionKey: PartitionKeyFor(anchor),
		Payload:      payload,
	}
}

// Field returns a payload field, or nil when absent. Payloads are open maps;
// callers must tolerate missing fields.
func (r Record) Field(name string) any {
	if r.Payload == nil {
		return nil
	}
	return r.Payload[name]
}

// StringField returns a payload field as a string, or "" when absent or not
// a string.
func (r Record) StringField(name string) string {
	s, _ := r.Field(name).(string)
	return s
}

// BoolField returns a payload field as a bool, defaulting to false.
func (r Record) BoolField(name string) bool {
	b, _ := r.Field(name).(bool)
	return b
}

// Clone returns a deep-enough copy for safe handoff across goroutines:
// the payload map and audit slice are copied, values are shared.
func (r Record) Clone() Record {
	cp := r
	cp.Payload = make(map[string]any, len(r.Payload))
	for k, v := range r.Payload {
		cp.Payload[k] = v
	}
	cp.Audit = append([]AuditEntry(nil), r.Audit...)
	return cp
}
