package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/venue-ledger/generic"
)

// =============================================================================
// FISCAL PERIOD TESTS
// =============================================================================

func TestFiscalYear_MarchThroughFebruary(t *testing.T) {
	fy := FiscalYear(2025)
	assert.Equal(t, "2025-03-01", fy.Start.String())
	assert.Equal(t, "2026-02-28", fy.End.String())

	// Leap February.
	fy = FiscalYear(2023)
	assert.Equal(t, "2024-02-29", fy.End.String())
}

func TestFiscalYear_BoundaryMembership(t *testing.T) {
	fy := FiscalYear(2025)

	assert.True(t, fy.Contains(generic.NewTimePoint(2025, time.March, 1)))
	assert.True(t, fy.Contains(generic.NewTimePoint(2026, time.February, 28)))
	assert.False(t, fy.Contains(generic.NewTimePoint(2025, time.February, 28)))
	assert.False(t, fy.Contains(generic.NewTimePoint(2026, time.March, 1)))
}

func TestFiscalMonthIndex(t *testing.T) {
	assert.Equal(t, 0, FiscalMonthIndex(time.March))
	assert.Equal(t, 9, FiscalMonthIndex(time.December))
	assert.Equal(t, 10, FiscalMonthIndex(time.January))
	assert.Equal(t, 11, FiscalMonthIndex(time.February))
}

func TestParseGranularity_DefaultsToMonth(t *testing.T) {
	assert.Equal(t, GranularityMonth, ParseGranularity(""))
	assert.Equal(t, GranularityMonth, ParseGranularity("weekly"))
	assert.Equal(t, GranularityQuarter, ParseGranularity("quarter"))
	assert.Equal(t, GranularityYear, ParseGranularity("year"))
}

func TestGranularity_BucketCountIsFixed(t *testing.T) {
	// The target-share denominator never depends on the span actually queried.
	assert.Equal(t, 12, GranularityMonth.BucketCount())
	assert.Equal(t, 4, GranularityQuarter.BucketCount())
	assert.Equal(t, 1, GranularityYear.BucketCount())
}

func TestBucketLabels(t *testing.T) {
	assert.Equal(t, "Mar 2025", fiscalBucketLabel(GranularityMonth, 2025, 0))
	assert.Equal(t, "Feb 2026", fiscalBucketLabel(GranularityMonth, 2025, 11))
	assert.Equal(t, "Q1 FY2025", fiscalBucketLabel(GranularityQuarter, 2025, 0))
	assert.Equal(t, "FY2025", fiscalBucketLabel(GranularityYear, 2025, 0))

	june := generic.NewTimePoint(2025, time.June, 1)
	assert.Equal(t, "Jun 2025", rangeBucketLabel(GranularityMonth, june, 0))
	assert.Equal(t, "Q2", rangeBucketLabel(GranularityQuarter, june, 1))
	assert.Equal(t, "Total", rangeBucketLabel(GranularityYear, june, 0))
}

func TestMonthsBetween(t *testing.T) {
	mar := generic.NewTimePoint(2025, time.March, 1)
	assert.Equal(t, 0, monthsBetween(mar, generic.NewTimePoint(2025, time.March, 31)))
	assert.Equal(t, 3, monthsBetween(mar, generic.NewTimePoint(2025, time.June, 5)))
	assert.Equal(t, 11, monthsBetween(mar, generic.NewTimePoint(2026, time.February, 10)))
}
