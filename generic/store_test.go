package generic_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/venue-ledger/generic"
	"github.com/warp/venue-ledger/generic/store"
)

const receipts = generic.Collection("receipts")

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	}
}

// =============================================================================
// RECORD STORE TESTS
// =============================================================================

func TestRecordStore_PutThenGet(t *testing.T) {
	// GIVEN: an empty store
	recs := generic.NewRecordStore(store.NewMemory()).WithClock(fixedClock(2025, time.April, 1))
	ctx := context.Background()

	// WHEN: writing a record into its month partition
	rec := generic.NewRecord("r-1", generic.NewTimePoint(2025, time.April, 1),
		map[string]any{"amount": "1000"})
	stored, err := recs.Put(ctx, receipts, "Apr2025", rec)
	require.NoError(t, err)

	// THEN: the store stamped the envelope
	assert.Equal(t, "Apr2025", stored.PartitionKey)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.Equal(t, stored.CreatedAt, stored.UpdatedAt)

	// AND: the record reads back intact
	got, err := recs.Get(ctx, receipts, "Apr2025", "r-1")
	require.NoError(t, err)
	assert.Equal(t, generic.RecordID("r-1"), got.ID)
	assert.Equal(t, "1000", got.StringField("amount"))
	assert.Equal(t, "2025-04-01", got.AnchorDate.String())
}

func TestRecordStore_PutPreservesCreatedAtOnRewrite(t *testing.T) {
	recs := generic.NewRecordStore(store.NewMemory()).WithClock(fixedClock(2025, time.April, 1))
	ctx := context.Background()

	rec := generic.NewRecord("r-1", generic.NewTimePoint(2025, time.April, 1), nil)
	first, err := recs.Put(ctx, receipts, "Apr2025", rec)
	require.NoError(t, err)

	recs.WithClock(fixedClock(2025, time.April, 5))
	second, err := recs.Put(ctx, receipts, "Apr2025", first)
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestRecordStore_PutRejectsMissingAnchorDate(t *testing.T) {
	recs := generic.NewRecordStore(store.NewMemory())
	_, err := recs.Put(context.Background(), receipts, "Apr2025", generic.Record{ID: "r-1"})
	require.Error(t, err)
	assert.True(t, generic.IsClientError(err))
}

func TestRecordStore_GetMissing(t *testing.T) {
	recs := generic.NewRecordStore(store.NewMemory())
	ctx := context.Background()

	// Absent partition and absent record are the same NotFound to callers.
	_, err := recs.Get(ctx, receipts, "Apr2025", "nope")
	assert.True(t, generic.IsNotFound(err))

	rec := generic.NewRecord("r-1", generic.NewTimePoint(2025, time.April, 1), nil)
	_, err = recs.Put(ctx, receipts, "Apr2025", rec)
	require.NoError(t, err)

	_, err = recs.Get(ctx, receipts, "Apr2025", "nope")
	assert.True(t, generic.IsNotFound(err))
}

func TestRecordStore_DeleteIsIdempotent(t *testing.T) {
	recs := generic.NewRecordStore(store.NewMemory())
	ctx := context.Background()

	rec := generic.NewRecord("r-1", generic.NewTimePoint(2025, time.April, 1), nil)
	_, err := recs.Put(ctx, receipts, "Apr2025", rec)
	require.NoError(t, err)

	require.NoError(t, recs.Delete(ctx, receipts, "Apr2025", "r-1"))
	_, err = recs.Get(ctx, receipts, "Apr2025", "r-1")
	assert.True(t, generic.IsNotFound(err))

	// Deleting again, or deleting from a partition that never existed, is fine.
	assert.NoError(t, recs.Delete(ctx, receipts, "Apr2025", "r-1"))
	assert.NoError(t, recs.Delete(ctx, receipts, "Jan2020", "r-1"))
}

func TestRecordStore_PartitionsSkipNonKeys(t *testing.T) {
	docs := store.NewMemory()
	recs := generic.NewRecordStore(docs)
	ctx := context.Background()

	for _, anchor := range []generic.TimePoint{
		generic.NewTimePoint(2025, time.April, 3),
		generic.NewTimePoint(2025, time.March, 30),
	} {
		rec := generic.NewRecord(generic.RecordID("r-"+anchor.String()), anchor, nil)
		_, err := recs.Put(ctx, receipts, generic.PartitionKeyFor(anchor), rec)
		require.NoError(t, err)
	}
	// A settings-style document in the same collection must not surface as
	// a partition.
	require.NoError(t, docs.SetMerge(ctx, string(receipts), "config",
		map[string]json.RawMessage{"v": json.RawMessage(`"1"`)}))

	keys, err := recs.Partitions(ctx, receipts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mar2025", "Apr2025"}, keys)
}

func TestRecordStore_ScanAllAndStop(t *testing.T) {
	recs := generic.NewRecordStore(store.NewMemory())
	ctx := context.Background()

	anchors := []generic.TimePoint{
		generic.NewTimePoint(2025, time.March, 10),
		generic.NewTimePoint(2025, time.April, 1),
		generic.NewTimePoint(2025, time.April, 20),
	}
	for i, anchor := range anchors {
		rec := generic.NewRecord(generic.RecordID(rune('a'+i)), anchor, nil)
		_, err := recs.Put(ctx, receipts, generic.PartitionKeyFor(anchor), rec)
		require.NoError(t, err)
	}

	// Nil key set means every partition.
	var seen int
	err := recs.Scan(ctx, receipts, nil, func(generic.Record) error {
		seen++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, seen)

	// Naming a partition that was never written is not an error.
	seen = 0
	err = recs.Scan(ctx, receipts, []string{"Jan2020", "Mar2025"}, func(generic.Record) error {
		seen++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, seen)

	// StopScan abandons cleanly.
	seen = 0
	err = recs.Scan(ctx, receipts, nil, func(generic.Record) error {
		seen++
		return generic.StopScan
	})
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

func TestRecordStore_ScanSkipsMalformedBlobs(t *testing.T) {
	// GIVEN: a partition holding one good record and one undecodable blob
	docs := store.NewMemory()
	recs := generic.NewRecordStore(docs)
	ctx := context.Background()

	rec := generic.NewRecord("good", generic.NewTimePoint(2025, time.April, 1), nil)
	_, err := recs.Put(ctx, receipts, "Apr2025", rec)
	require.NoError(t, err)
	require.NoError(t, docs.SetMerge(ctx, string(receipts), "Apr2025",
		map[string]json.RawMessage{"bad": json.RawMessage(`{{not json`)}))

	// THEN: the scan yields the good record and never aborts
	var ids []generic.RecordID
	err = recs.Scan(ctx, receipts, []string{"Apr2025"}, func(r generic.Record) error {
		ids = append(ids, r.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []generic.RecordID{"good"}, ids)
}

func TestRecordStore_ScanHonoursContext(t *testing.T) {
	recs := generic.NewRecordStore(store.NewMemory())
	rec := generic.NewRecord("r-1", generic.NewTimePoint(2025, time.April, 1), nil)
	_, err := recs.Put(context.Background(), receipts, "Apr2025", rec)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = recs.Scan(ctx, receipts, nil, func(generic.Record) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
