/*
rollup.go - Multi-period revenue rollup

PURPOSE:
  Groups every qualifying payment line into fiscal buckets and reports
  credit/debit/generated totals per bucket alongside the share of the
  annual revenue target each bucket carries.

BUCKETING:
  The fiscal year spans [March 1, last day of February]. Payment lines
  are assigned to the calendar month they fall in, independent of the
  owning record's anchor date, then re-indexed so fiscal month 0 is
  March. Granularity merges months into 12, 4 or 1 buckets.

  An explicit date-range override replaces the fiscal span entirely
  (both bounds inclusive) and bypasses fiscal re-indexing: buckets run
  in calendar order from the range start.

TARGET SHARE:
  targetShare = annualTarget / bucketCount, with bucketCount fixed at
  12, 4 or 1 by granularity. The annual target is an externally
  persisted scalar read from a TargetSource, never computed here.

DETERMINISM:
  Two runs over an unchanged store with the same arguments yield
  byte-identical output: buckets are emitted in order, all totals are
  exact decimal sums, and nothing depends on scan order.
*/
package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/warp/venue-ledger/generic"
)

// =============================================================================
// ROLLUP
// =============================================================================

// RollupArgs selects the reporting span and bucket shape.
type RollupArgs struct {
	// FiscalYearStart selects the fiscal year [March 1 of this year,
	// Feb 28/29 of the next]. Also keys the annual target lookup.
	FiscalYearStart int

	Granularity Granularity

	// RangeOverride, when set, replaces the fiscal span entirely.
	RangeOverride *Period
}

// RollupBucket is one row of the rollup, in bucket order.
type RollupBucket struct {
	Label          string          `json:"label"`
	CreditTotal    decimal.Decimal `json:"creditTotal"`
	DebitTotal     decimal.Decimal `json:"debitTotal"`
	GeneratedTotal decimal.Decimal `json:"generatedTotal"`
	TargetShare    decimal.Decimal `json:"targetShare"`
}

// PeriodRollup buckets every qualifying payment line of the collection
// into the selected spans. All partitions are scanned: a record anchored
// in one month may hold payment lines dated in another.
func (a *Aggregator) PeriodRollup(ctx context.Context, schema Schema, args RollupArgs) ([]RollupBucket, error) {
	span := FiscalYear(args.FiscalYearStart)
	if args.RangeOverride != nil {
		span = *args.RangeOverride
		if span.End.Before(span.Start) {
			return nil, &InvalidPeriodError{Period: span}
		}
	}

	monthCount := monthsBetween(span.Start, span.End) + 1
	bucketCount := monthCount
	switch args.Granularity {
	case GranularityQuarter:
		bucketCount = (monthCount + 2) / 3
	case GranularityYear:
		bucketCount = 1
	}

	credits := make([]decimal.Decimal, bucketCount)
	debits := make([]decimal.Decimal, bucketCount)
	var mu sync.Mutex

	keys, err := a.store.Partitions(ctx, schema.Collection)
	if err != nil {
		return nil, err
	}
	err = a.scanPartitions(ctx, schema.Collection, keys, func(rec generic.Record) error {
		if !schema.Approved(rec) {
			return nil
		}
		for _, line := range schema.paymentLines(rec) {
			if line.Date.IsZero() || !span.Contains(line.Date) {
				continue
			}
			monthIdx := monthsBetween(span.Start, line.Date)
			if args.RangeOverride == nil {
				// Within the fiscal span the month position is the
				// fiscal re-index of the line's calendar month.
				monthIdx = FiscalMonthIndex(line.Date.Month())
			}
			idx := args.Granularity.merge(monthIdx)
			if idx < 0 || idx >= bucketCount {
				continue
			}
			mu.Lock()
			if line.Direction == Debit {
				debits[idx] = debits[idx].Add(line.Amount)
			} else {
				credits[idx] = credits[idx].Add(line.Amount)
			}
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	target := decimal.Zero
	if a.targets != nil {
		target, err = a.targets.AnnualTarget(ctx, args.FiscalYearStart)
		if err != nil {
			return nil, err
		}
	}
	share := target.Div(decimal.NewFromInt(int64(args.Granularity.BucketCount())))

	buckets := make([]RollupBucket, bucketCount)
	for i := range buckets {
		label := fiscalBucketLabel(args.Granularity, args.FiscalYearStart, i)
		if args.RangeOverride != nil {
			label = rangeBucketLabel(args.Granularity, span.Start, i)
		}
		buckets[i] = RollupBucket{
			Label:          label,
			CreditTotal:    credits[i],
			DebitTotal:     debits[i],
			GeneratedTotal: credits[i].Sub(debits[i]),
			TargetShare:    share,
		}
	}
	return buckets, nil
}
