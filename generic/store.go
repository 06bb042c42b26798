/*
store.go - Partition persistence: document-store port + record store

PURPOSE:
  Defines the interface between the engine and the underlying document
  database, and the RecordStore that maps records into partition
  documents. One partition document exists per (collection, partitionKey);
  the document's top-level fields are record ids mapping to record
  payloads (each including its own embedded audit trail).

DOCUMENT STORE CONTRACT:
  Get:           whole document or ErrNotFound
  SetMerge:      merge named top-level fields without clobbering siblings
  DeleteField:   remove one record id's entry; no-op if absent
  ListDocuments: enumerate partition document ids

  Concurrency is per-partition-key last-write-wins; implementations
  provide no compare-and-swap. Transport failures surface as
  ErrStorageUnavailable wraps and are never retried here.

RECORD STORE:
  Get/Put/Delete address a specific (collection, partitionKey, id).
  Put creates the partition lazily and stamps updatedAt/createdAt;
  partitions are never explicitly deleted and may become empty.
  Scan streams records through a callback: finite, restartable,
  read-only, cancellable via ctx, with no ordering guarantee within
  a partition. Record blobs that fail to decode are skipped, never
  abort the whole scan.

IMPLEMENTATIONS OF THE PORT:
  - generic/store/memory.go: In-memory, for tests and dev
  - store/sqlite/sqlite.go:  Production SQLite
  - store/pebble/pebble.go:  Embedded Pebble key-value backend

SEE ALSO:
  - migrate.go: The only component allowed to move records between keys
  - ledger/: Read-only aggregation over Scan
*/
package generic

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// =============================================================================
// DOCUMENT STORE - External collaborator port
// =============================================================================

// DocumentStore is the outbound port to the concrete document database.
// Field values are opaque JSON blobs; the engine owns their shape.
type DocumentStore interface {
	// Get returns all top-level fields of a document, or ErrNotFound.
	Get(ctx context.Context, collection, docID string) (map[string]json.RawMessage, error)

	// SetMerge merges the named fields into a document, creating it if
	// absent, without touching sibling fields.
	SetMerge(ctx context.Context, collection, docID string, fields map[string]json.RawMessage) error

	// DeleteField removes one field from a document. Removing an absent
	// field or a field of an absent document is a no-op, not an error.
	DeleteField(ctx context.Context, collection, docID, field string) error

	// ListDocuments enumerates document ids in a collection.
	ListDocuments(ctx context.Context, collection string) ([]string, error)
}

// =============================================================================
// RECORD STORE - Records inside month partition documents
// =============================================================================

// StopScan can be returned from a Scan callback to abandon the scan early
// without an error. Scans are read-only, so abandonment has no side effects.
var StopScan = errors.New("stop scan")

// RecordStore reads and writes records inside partition documents.
type RecordStore struct {
	docs DocumentStore
	now  func() time.Time
}

func NewRecordStore(docs DocumentStore) *RecordStore {
	return &RecordStore{docs: docs, now: time.Now}
}

// WithClock overrides the timestamp source. Tests only.
func (s *RecordStore) WithClock(now func() time.Time) *RecordStore {
	s.now = now
	return s
}

// Get returns the record stored at (collection, partitionKey, id).
func (s *RecordStore) Get(ctx context.Context, collection Collection, partitionKey string, id RecordID) (Record, error) {
	fields, err := s.docs.Get(ctx, string(collection), partitionKey)
	if err != nil {
		if IsNotFound(err) {
			return Record{}, &NotFoundError{Collection: collection, PartitionKey: partitionKey, ID: id}
		}
		return Record{}, err
	}
	blob, ok := fields[string(id)]
	if !ok {
		return Record{}, &NotFoundError{Collection: collection, PartitionKey: partitionKey, ID: id}
	}
	var rec Record
	if err := json.Unmarshal(blob, &rec); err != nil {
		return Record{}, &NotFoundError{Collection: collection, PartitionKey: partitionKey, ID: id}
	}
	return rec, nil
}

// Put inserts or overwrites the record's entry in the given partition,
// creating the partition document if absent. The store owns the timestamps:
// updatedAt is always stamped, createdAt only on first write of this copy.
// Returns the record as stored.
func (s *RecordStore) Put(ctx context.Context, collection Collection, partitionKey string, rec Record) (Record, error) {
	if rec.AnchorDate.IsZero() {
		return Record{}, &InvalidAnchorDateError{Raw: "", Cause: errors.New("missing")}
	}

	now := s.now().UTC()
	rec.UpdatedAt = now
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.PartitionKey = partitionKey

	blob, err := json.Marshal(rec)
	if err != nil {
		return Record{}, err
	}
	err = s.docs.SetMerge(ctx, string(collection), partitionKey, map[string]json.RawMessage{
		string(rec.ID): blob,
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Delete removes the record's entry from that specific partition only.
// Deleting an absent entry is a no-op. No tombstones.
func (s *RecordStore) Delete(ctx context.Context, collection Collection, partitionKey string, id RecordID) error {
	return s.docs.DeleteField(ctx, string(collection), partitionKey, string(id))
}

// Partitions lists the partition document ids of a collection, skipping
// ids that do not parse as partition keys.
func (s *RecordStore) Partitions(ctx context.Context, collection Collection) ([]string, error) {
	ids, err := s.docs.ListDocuments(ctx, string(collection))
	if err != nil {
		return nil, err
	}
	// Reuse the cumulative filter with a far-future cutoff to drop
	// non-partition ids and get chronological order.
	return PartitionKeysThrough(ids, NewTimePoint(9999, time.December, 31)), nil
}

// Scan streams every record in the named partitions through fn. A nil or
// empty key set means all partitions of the collection. Scan is read-only
// and may be abandoned at any point via ctx or by returning StopScan.
// Record blobs that fail to decode are skipped.
func (s *RecordStore) Scan(ctx context.Context, collection Collection, partitionKeys []string, fn func(Record) error) error {
	keys := partitionKeys
	if len(keys) == 0 {
		all, err := s.Partitions(ctx, collection)
		if err != nil {
			return err
		}
		keys = all
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		fields, err := s.docs.Get(ctx, string(collection), key)
		if err != nil {
			if IsNotFound(err) {
				continue // partition named but never written
			}
			return err
		}
		for _, blob := range fields {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec Record
			if err := json.Unmarshal(blob, &rec); err != nil {
				continue // malformed legacy entry: skip, never abort
			}
			if err := fn(rec); err != nil {
				if errors.Is(err, StopScan) {
					return nil
				}
				return err
			}
		}
	}
	return nil
}
