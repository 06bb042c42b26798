package ledger

import (
	"fmt"
	"time"

	"github.com/warp/venue-ledger/generic"
)

// =============================================================================
// PERIOD - Reporting spans and fiscal bucketing
// =============================================================================

// The reporting fiscal year starts in March: fiscal month 0 is March,
// fiscal month 11 is the following February.
const FiscalYearStartMonth = time.March

// Period is an inclusive date span.
type Period struct {
	Start generic.TimePoint
	End   generic.TimePoint
}

// Contains returns true if the date is within [Start, End].
func (p Period) Contains(t generic.TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// FiscalYear returns the span of the fiscal year that starts in March of
// startYear and ends on the last day of the following February.
func FiscalYear(startYear int) Period {
	return Period{
		Start: generic.NewTimePoint(startYear, FiscalYearStartMonth, 1),
		End:   generic.EndOfMonth(startYear+1, time.February),
	}
}

// InvalidPeriodError reports a reporting span whose end precedes its start.
type InvalidPeriodError struct {
	Period Period
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period %s: end precedes start", e.Period)
}

func (e *InvalidPeriodError) Unwrap() error { return generic.ErrInvalidPeriod }

// FiscalMonthIndex re-indexes a calendar month so March -> 0 ... February -> 11.
func FiscalMonthIndex(month time.Month) int {
	return (int(month) - int(FiscalYearStartMonth) + 12) % 12
}

// =============================================================================
// GRANULARITY - month / quarter / year bucketing
// =============================================================================

type Granularity string

const (
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
	GranularityYear    Granularity = "year"
)

// ParseGranularity maps a request string to a granularity, defaulting to month.
func ParseGranularity(s string) Granularity {
	switch Granularity(s) {
	case GranularityQuarter:
		return GranularityQuarter
	case GranularityYear:
		return GranularityYear
	default:
		return GranularityMonth
	}
}

// BucketCount is the target-share denominator: 12, 4 or 1.
func (g Granularity) BucketCount() int {
	switch g {
	case GranularityQuarter:
		return 4
	case GranularityYear:
		return 1
	default:
		return 12
	}
}

// merge maps a month position (0-based within the reporting span) to its
// bucket index under this granularity.
func (g Granularity) merge(monthIndex int) int {
	switch g {
	case GranularityQuarter:
		return monthIndex / 3
	case GranularityYear:
		return 0
	default:
		return monthIndex
	}
}

// fiscalBucketLabel names a bucket of the fiscal-year rollup.
func fiscalBucketLabel(g Granularity, startYear, bucket int) string {
	switch g {
	case GranularityQuarter:
		return fmt.Sprintf("Q%d FY%d", bucket+1, startYear)
	case GranularityYear:
		return fmt.Sprintf("FY%d", startYear)
	default:
		month := generic.NewTimePoint(startYear, FiscalYearStartMonth, 1).AddMonths(bucket)
		return month.Time.Format("Jan 2006")
	}
}

// rangeBucketLabel names a bucket when an explicit date range replaces the
// fiscal year. Months keep calendar labels; merged buckets are positional.
func rangeBucketLabel(g Granularity, start generic.TimePoint, bucket int) string {
	switch g {
	case GranularityQuarter:
		return fmt.Sprintf("Q%d", bucket+1)
	case GranularityYear:
		return "Total"
	default:
		return start.AddMonths(bucket).Time.Format("Jan 2006")
	}
}

// monthsBetween counts whole calendar months from the month of a to the
// month of b (0 when both fall in the same month).
func monthsBetween(a, b generic.TimePoint) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
