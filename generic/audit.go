/*
audit.go - Field-level change tracking embedded in records

PURPOSE:
  On every mutation the engine computes a field-level diff against the
  previous version of the record and appends a timestamped, attributed
  entry to the record's own audit trail. The trail lives inside the
  record payload document - there is no separate audit collection.

DIFF SCOPE:
  Payload fields plus the anchor date. Envelope bookkeeping (cached
  partition key, createdAt/updatedAt) is not diffed: it changes on every
  write and would drown the trail in noise.

ORDERING:
  Entries are appended in insertion order. Display ordering (newest
  first) is produced on read, never persisted.
*/
package generic

import (
	"reflect"
	"time"
)

// anchorDateField is the pseudo-field name under which anchor date moves
// appear in audit diffs.
const anchorDateField = "anchorDate"

// DiffRecords computes the field-level changes from old to new: payload
// fields that were added, removed, or altered, plus an anchor date move.
// An empty map means the mutation changed nothing worth recording.
func DiffRecords(old, new Record) map[string]FieldChange {
	changes := map[string]FieldChange{}

	for name, was := range old.Payload {
		now, ok := new.Payload[name]
		if !ok {
			changes[name] = FieldChange{Old: was, New: nil}
			continue
		}
		if !reflect.DeepEqual(was, now) {
			changes[name] = FieldChange{Old: was, New: now}
		}
	}
	for name, now := range new.Payload {
		if _, ok := old.Payload[name]; !ok {
			changes[name] = FieldChange{Old: nil, New: now}
		}
	}

	if !old.AnchorDate.Equal(new.AnchorDate) {
		changes[anchorDateField] = FieldChange{Old: old.AnchorDate.String(), New: new.AnchorDate.String()}
	}

	return changes
}

// AppendAudit returns rec with an audit entry appended. Entries with no
// changes are not appended, so rewriting identical content leaves the
// trail (and everything derived from the record) untouched.
func AppendAudit(rec Record, at time.Time, actor Actor, changes map[string]FieldChange) Record {
	if len(changes) == 0 {
		return rec
	}
	rec.Audit = append(rec.Audit, AuditEntry{At: at.UTC(), Actor: actor, Changes: changes})
	return rec
}

// TrailNewestFirst returns the record's audit entries ordered for display,
// most recent first. The stored trail keeps insertion order.
func TrailNewestFirst(rec Record) []AuditEntry {
	out := make([]AuditEntry, len(rec.Audit))
	for i, e := range rec.Audit {
		out[len(rec.Audit)-1-i] = e
	}
	return out
}
