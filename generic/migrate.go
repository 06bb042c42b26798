/*
migrate.go - Keeping partition placement consistent with the anchor date

PURPOSE:
  A record lives in the partition implied by its anchor date. When an
  edit moves the anchor date across a month boundary, the record must
  move partitions without ever being momentarily absent and without
  being lost.

ORDERING RULE (write new, then delete old):
  The record is written to its new partition BEFORE the old entry is
  removed. A crash or delete failure between the two steps leaves a
  harmless duplicate in the old partition, never a missing record. The
  copy in the new partition is authoritative; the duplicate is a
  recoverable inconsistency that is logged and not retried.

CROSS-COLLECTION PROMOTION:
  Promoting a record (e.g. enquiry -> lead) is two independent
  single-collection operations under the same ordering rule: create in
  the destination, then delete from the source. No transaction spans
  the pair. A crash in between leaves the record in both collections;
  the read path treats the source copy as stale once the destination
  copy exists.

AUDIT:
  Every Upsert diffs the incoming record against the stored previous
  version and appends the change set to the record's embedded trail
  before writing. Rewriting identical content appends nothing.

SEE ALSO:
  - store.go: The single-partition operations used here
  - audit.go: Diff computation
*/
package generic

import (
	"context"
	"time"

	"github.com/warp/venue-ledger/logging"
)

// =============================================================================
// COORDINATOR - The only writer allowed to move records between partitions
// =============================================================================

type Coordinator struct {
	store *RecordStore
	log   *logging.Logger
	now   func() time.Time
}

func NewCoordinator(store *RecordStore, log *logging.Logger) *Coordinator {
	return &Coordinator{
		store: store,
		log:   log.WithComponent(logging.ComponentMigration),
		now:   time.Now,
	}
}

// WithClock overrides the audit timestamp source. Tests only.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// Upsert writes a record into the partition implied by its anchor date,
// migrating it out of previousPartitionKey when the month has changed.
// previousPartitionKey is "" for a brand-new record.
//
// Returns the record as stored (timestamps stamped, audit appended).
func (c *Coordinator) Upsert(ctx context.Context, collection Collection, actor Actor, rec Record, previousPartitionKey string) (Record, error) {
	if rec.AnchorDate.IsZero() {
		return Record{}, &InvalidAnchorDateError{Raw: "", Cause: ErrInvalidAnchorDate}
	}
	newKey := PartitionKeyFor(rec.AnchorDate)
	rec.PartitionKey = newKey

	// New record: single write, nothing to diff against.
	if previousPartitionKey == "" {
		rec = AppendAudit(rec, c.now(), actor, creationChanges(rec))
		return c.store.Put(ctx, collection, newKey, rec)
	}

	// Diff against the stored previous version and carry its history.
	prev, err := c.store.Get(ctx, collection, previousPartitionKey, rec.ID)
	switch {
	case err == nil:
		rec.CreatedAt = prev.CreatedAt
		rec.Audit = prev.Audit
		rec = AppendAudit(rec, c.now(), actor, DiffRecords(prev, rec))
	case IsNotFound(err):
		// Already migrated by a concurrent writer, or the caller's view is
		// stale. The write below is still correct; note it and move on.
		c.log.Debug("previous copy absent on upsert",
			logging.FieldCollection, string(collection),
			logging.FieldRecordID, string(rec.ID),
			logging.FieldPartition, previousPartitionKey)
	default:
		return Record{}, err
	}

	// Value update in place.
	if previousPartitionKey == newKey {
		return c.store.Put(ctx, collection, newKey, rec)
	}

	// Migration: write new first, then best-effort delete of the old entry.
	stored, err := c.store.Put(ctx, collection, newKey, rec)
	if err != nil {
		return Record{}, err
	}
	if err := c.store.Delete(ctx, collection, previousPartitionKey, rec.ID); err != nil {
		perr := &PartialMigrationError{
			Collection: collection,
			ID:         rec.ID,
			OldKey:     previousPartitionKey,
			NewKey:     newKey,
			Cause:      err,
		}
		c.log.Warn("old partition entry not cleared; new copy is authoritative",
			logging.FieldCollection, string(collection),
			logging.FieldRecordID, string(rec.ID),
			logging.FieldPartition, previousPartitionKey,
			logging.FieldError, perr.Error())
	}
	return stored, nil
}

// Promote moves a record from one collection to another (same ordering
// rule: create destination, then delete source). The destination record
// keeps the source id; its partition follows its own anchor date. The two
// operations are not atomic across collections - a failure after the
// first write leaves the record in both, and the read path resolves the
// duplicate in favour of the destination.
func (c *Coordinator) Promote(ctx context.Context, from, to Collection, actor Actor, rec Record, sourcePartitionKey string) (Record, error) {
	if rec.AnchorDate.IsZero() {
		return Record{}, &InvalidAnchorDateError{Raw: "", Cause: ErrInvalidAnchorDate}
	}
	destKey := PartitionKeyFor(rec.AnchorDate)
	rec.PartitionKey = destKey
	rec = AppendAudit(rec, c.now(), actor, map[string]FieldChange{
		"collection": {Old: string(from), New: string(to)},
	})

	stored, err := c.store.Put(ctx, to, destKey, rec)
	if err != nil {
		return Record{}, err
	}
	if err := c.store.Delete(ctx, from, sourcePartitionKey, rec.ID); err != nil {
		c.log.Warn("source copy not cleared after promotion; destination copy is authoritative",
			logging.FieldCollection, string(from),
			logging.FieldRecordID, string(rec.ID),
			logging.FieldPartition, sourcePartitionKey,
			logging.FieldError, err.Error())
	}
	return stored, nil
}

// Delete removes a record from its known partition. Deleting an absent
// record is a no-op, matching the store contract.
func (c *Coordinator) Delete(ctx context.Context, collection Collection, partitionKey string, id RecordID) error {
	return c.store.Delete(ctx, collection, partitionKey, id)
}

// creationChanges produces the audit entry for a record's first write:
// every payload field appears as nil -> value.
func creationChanges(rec Record) map[string]FieldChange {
	changes := make(map[string]FieldChange, len(rec.Payload)+1)
	for name, v := range rec.Payload {
		changes[name] = FieldChange{Old: nil, New: v}
	}
	changes[anchorDateField] = FieldChange{Old: nil, New: rec.AnchorDate.String()}
	return changes
}
