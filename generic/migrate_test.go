package generic_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/venue-ledger/generic"
	"github.com/warp/venue-ledger/generic/store"
	"github.com/warp/venue-ledger/logging"
)

func quietLogger() *logging.Logger {
	return logging.NewWithHandler(slog.NewTextHandler(io.Discard, nil), "test")
}

func newCoordinator(docs generic.DocumentStore) (*generic.Coordinator, *generic.RecordStore) {
	recs := generic.NewRecordStore(docs)
	return generic.NewCoordinator(recs, quietLogger()), recs
}

var asha = generic.Actor{Name: "Asha", Email: "asha@example.com"}

// =============================================================================
// UPSERT TESTS
// =============================================================================

func TestUpsert_NewRecordGetsCreationAudit(t *testing.T) {
	coord, recs := newCoordinator(store.NewMemory())
	ctx := context.Background()

	rec := generic.NewRecord("enq-1", generic.NewTimePoint(2025, time.March, 30),
		map[string]any{"client": "Mehta", "amount": "12000"})
	stored, err := coord.Upsert(ctx, receipts, asha, rec, "")
	require.NoError(t, err)

	assert.Equal(t, "Mar2025", stored.PartitionKey)
	require.Len(t, stored.Audit, 1)
	entry := stored.Audit[0]
	assert.Equal(t, asha, entry.Actor)
	assert.Equal(t, generic.FieldChange{Old: nil, New: "Mehta"}, entry.Changes["client"])
	assert.Equal(t, generic.FieldChange{Old: nil, New: "2025-03-30"}, entry.Changes["anchorDate"])

	got, err := recs.Get(ctx, receipts, "Mar2025", "enq-1")
	require.NoError(t, err)
	assert.Len(t, got.Audit, 1)
}

func TestUpsert_InPlaceUpdateDiffsAgainstStored(t *testing.T) {
	coord, recs := newCoordinator(store.NewMemory())
	ctx := context.Background()

	rec := generic.NewRecord("enq-1", generic.NewTimePoint(2025, time.April, 5),
		map[string]any{"amount": "1000"})
	_, err := coord.Upsert(ctx, receipts, asha, rec, "")
	require.NoError(t, err)

	// WHEN: editing the amount without moving the date
	rec.Payload = map[string]any{"amount": "1500"}
	stored, err := coord.Upsert(ctx, receipts, asha, rec, "Apr2025")
	require.NoError(t, err)

	// THEN: same partition, one new audit entry with the field transition
	assert.Equal(t, "Apr2025", stored.PartitionKey)
	require.Len(t, stored.Audit, 2)
	assert.Equal(t, generic.FieldChange{Old: "1000", New: "1500"},
		stored.Audit[1].Changes["amount"])

	got, err := recs.Get(ctx, receipts, "Apr2025", "enq-1")
	require.NoError(t, err)
	assert.Len(t, got.Audit, 2)
}

func TestUpsert_IdenticalRewriteAppendsNoAudit(t *testing.T) {
	coord, _ := newCoordinator(store.NewMemory())
	ctx := context.Background()

	rec := generic.NewRecord("enq-1", generic.NewTimePoint(2025, time.April, 5),
		map[string]any{"amount": "1000"})
	first, err := coord.Upsert(ctx, receipts, asha, rec, "")
	require.NoError(t, err)

	second, err := coord.Upsert(ctx, receipts, asha, rec, "Apr2025")
	require.NoError(t, err)

	assert.Len(t, first.Audit, 1)
	assert.Len(t, second.Audit, 1)
}

func TestUpsert_MigratesAcrossMonthBoundary(t *testing.T) {
	// GIVEN: a record anchored on March 30
	coord, recs := newCoordinator(store.NewMemory())
	ctx := context.Background()

	rec := generic.NewRecord("enq-1", generic.NewTimePoint(2025, time.March, 30),
		map[string]any{"client": "Mehta"})
	_, err := coord.Upsert(ctx, receipts, asha, rec, "")
	require.NoError(t, err)

	// WHEN: the date is edited to April 2
	rec.AnchorDate = generic.NewTimePoint(2025, time.April, 2)
	stored, err := coord.Upsert(ctx, receipts, asha, rec, "Mar2025")
	require.NoError(t, err)

	// THEN: the record lives only in the April partition
	assert.Equal(t, "Apr2025", stored.PartitionKey)
	_, err = recs.Get(ctx, receipts, "Mar2025", "enq-1")
	assert.True(t, generic.IsNotFound(err))

	got, err := recs.Get(ctx, receipts, "Apr2025", "enq-1")
	require.NoError(t, err)
	assert.Equal(t, "Mehta", got.StringField("client"))

	// AND: the trail carries both the creation and the move
	require.Len(t, got.Audit, 2)
	assert.Equal(t, generic.FieldChange{Old: "2025-03-30", New: "2025-04-02"},
		got.Audit[1].Changes["anchorDate"])
}

func TestUpsert_DeleteFailureLeavesDuplicateNotLoss(t *testing.T) {
	// GIVEN: a store whose delete path is down
	flaky := store.NewFlaky(store.NewMemory())
	coord, recs := newCoordinator(flaky)
	ctx := context.Background()

	rec := generic.NewRecord("enq-1", generic.NewTimePoint(2025, time.March, 30), nil)
	_, err := coord.Upsert(ctx, receipts, asha, rec, "")
	require.NoError(t, err)

	flaky.SetFailures(nil, &generic.StorageError{Op: "deleteField", Cause: io.ErrClosedPipe})

	// WHEN: a cross-month edit runs while deletes fail
	rec.AnchorDate = generic.NewTimePoint(2025, time.April, 2)
	stored, err := coord.Upsert(ctx, receipts, asha, rec, "Mar2025")

	// THEN: the upsert still succeeds; the new copy exists
	require.NoError(t, err)
	assert.Equal(t, "Apr2025", stored.PartitionKey)
	_, err = recs.Get(ctx, receipts, "Apr2025", "enq-1")
	require.NoError(t, err)

	// AND: the old copy lingers as a duplicate, never a missing record
	flaky.SetFailures(nil, nil)
	old, err := recs.Get(ctx, receipts, "Mar2025", "enq-1")
	require.NoError(t, err)
	assert.Equal(t, "Mar2025", old.PartitionKey)
}

func TestUpsert_PreviousCopyAbsentIsTolerated(t *testing.T) {
	// A concurrent writer may have migrated the record already. The write
	// proceeds; only the diff against the vanished copy is lost.
	coord, recs := newCoordinator(store.NewMemory())
	ctx := context.Background()

	rec := generic.NewRecord("enq-1", generic.NewTimePoint(2025, time.April, 2), nil)
	stored, err := coord.Upsert(ctx, receipts, asha, rec, "Mar2025")
	require.NoError(t, err)
	assert.Equal(t, "Apr2025", stored.PartitionKey)

	_, err = recs.Get(ctx, receipts, "Apr2025", "enq-1")
	assert.NoError(t, err)
}

func TestUpsert_GetFailureAbortsBeforeAnyWrite(t *testing.T) {
	flaky := store.NewFlaky(store.NewMemory())
	coord, _ := newCoordinator(flaky)
	flaky.SetFailures(&generic.StorageError{Op: "get", Cause: io.ErrClosedPipe}, nil)

	rec := generic.NewRecord("enq-1", generic.NewTimePoint(2025, time.April, 2), nil)
	_, err := coord.Upsert(context.Background(), receipts, asha, rec, "Mar2025")
	require.Error(t, err)
	assert.True(t, generic.IsStorageError(err))
}

func TestUpsert_RejectsZeroAnchorDate(t *testing.T) {
	coord, _ := newCoordinator(store.NewMemory())
	_, err := coord.Upsert(context.Background(), receipts, asha, generic.Record{ID: "x"}, "")
	require.Error(t, err)
	assert.True(t, generic.IsClientError(err))
}

// =============================================================================
// PROMOTION TESTS
// =============================================================================

func TestPromote_CreatesDestinationThenClearsSource(t *testing.T) {
	coord, recs := newCoordinator(store.NewMemory())
	ctx := context.Background()
	enquiries := generic.Collection("enquiries")
	leads := generic.Collection("leads")

	rec := generic.NewRecord("enq-1", generic.NewTimePoint(2025, time.April, 5),
		map[string]any{"client": "Mehta"})
	stored, err := coord.Upsert(ctx, enquiries, asha, rec, "")
	require.NoError(t, err)

	// WHEN: promoting with the function date in a different month
	stored.AnchorDate = generic.NewTimePoint(2025, time.June, 14)
	promoted, err := coord.Promote(ctx, enquiries, leads, asha, stored, "Apr2025")
	require.NoError(t, err)

	// THEN: the lead lives in its own month's partition, same id
	assert.Equal(t, "Jun2025", promoted.PartitionKey)
	got, err := recs.Get(ctx, leads, "Jun2025", "enq-1")
	require.NoError(t, err)
	assert.Equal(t, "Mehta", got.StringField("client"))

	// AND: the promotion is on the trail and the source copy is gone
	last := got.Audit[len(got.Audit)-1]
	assert.Equal(t, generic.FieldChange{Old: "enquiries", New: "leads"}, last.Changes["collection"])
	_, err = recs.Get(ctx, enquiries, "Apr2025", "enq-1")
	assert.True(t, generic.IsNotFound(err))
}

func TestPromote_SourceDeleteFailureLeavesBothCopies(t *testing.T) {
	flaky := store.NewFlaky(store.NewMemory())
	coord, recs := newCoordinator(flaky)
	ctx := context.Background()
	enquiries := generic.Collection("enquiries")
	leads := generic.Collection("leads")

	rec := generic.NewRecord("enq-1", generic.NewTimePoint(2025, time.April, 5), nil)
	stored, err := coord.Upsert(ctx, enquiries, asha, rec, "")
	require.NoError(t, err)

	flaky.SetFailures(nil, &generic.StorageError{Op: "deleteField", Cause: io.ErrClosedPipe})
	_, err = coord.Promote(ctx, enquiries, leads, asha, stored, "Apr2025")
	require.NoError(t, err)
	flaky.SetFailures(nil, nil)

	// Both copies exist; readers resolve in favour of the lead.
	_, err = recs.Get(ctx, leads, "Apr2025", "enq-1")
	assert.NoError(t, err)
	_, err = recs.Get(ctx, enquiries, "Apr2025", "enq-1")
	assert.NoError(t, err)
}
