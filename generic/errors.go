/*
errors.go - Centralized error types for the partition engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers decide retry vs. reject based on the error kind, so validation
  failures and transport failures are distinct values.

ERROR CATEGORIES:
  1. Lookup errors - Referenced record or partition absent (recoverable)
  2. Validation errors - Rejected before any partition mutation
  3. Storage errors - Transport-level failures surfaced to the caller
  4. Migration inconsistencies - Logged, self-healing, never fatal

USAGE:
  if generic.IsNotFound(err) {
      // caller decides: 404, create, etc.
  }

SEE ALSO:
  - store.go: Returns lookup and storage errors
  - migrate.go: Produces PartialMigrationError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a record id is absent from the partition
	// it was looked up in. Recoverable; the caller decides what it means.
	ErrNotFound = errors.New("record not found")

	// ErrPartitionUnavailable is returned when a partition document cannot
	// be read or written because of an underlying I/O failure.
	ErrPartitionUnavailable = errors.New("partition unavailable")

	// ErrInvalidAnchorDate is returned when a write carries an anchor date
	// that cannot be parsed. Rejected before any partition mutation.
	ErrInvalidAnchorDate = errors.New("invalid anchor date")

	// ErrInvalidPeriod is returned when a reporting span's end precedes its
	// start. Rejected before any scan.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrStorageUnavailable wraps transport failures from the document
	// store. No local retry policy; retries belong to the transport.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies exactly which lookup missed.
type NotFoundError struct {
	Collection   Collection
	PartitionKey string
	ID           RecordID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %s not found in %s/%s", e.ID, e.Collection, e.PartitionKey)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidAnchorDateError reports the raw value that failed to parse.
type InvalidAnchorDateError struct {
	Raw   string
	Cause error
}

func (e *InvalidAnchorDateError) Error() string {
	return fmt.Sprintf("invalid anchor date %q: %v", e.Raw, e.Cause)
}

func (e *InvalidAnchorDateError) Unwrap() error { return ErrInvalidAnchorDate }

// PartialMigrationError reports that a record was written to its new
// partition but the old copy could not be removed. The new copy is
// authoritative; the stray duplicate is a recoverable inconsistency that
// the next successful write or read-side existence check heals.
type PartialMigrationError struct {
	Collection Collection
	ID         RecordID
	OldKey     string
	NewKey     string
	Cause      error
}

func (e *PartialMigrationError) Error() string {
	return fmt.Sprintf("partial migration of %s in %s: wrote %s, could not clear %s: %v",
		e.ID, e.Collection, e.NewKey, e.OldKey, e.Cause)
}

func (e *PartialMigrationError) Unwrap() error { return e.Cause }

// StorageError wraps a transport failure with the operation that hit it.
type StorageError struct {
	Op    string // "get", "setMerge", "deleteField", "listDocuments"
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error { return ErrStorageUnavailable }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAnchorDate) || errors.Is(err, ErrInvalidPeriod)
}

// IsStorageError returns true for transport-level failures that may succeed
// later; retrying is the storage collaborator's business, not the engine's.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrPartitionUnavailable)
}
