/*
balance.go - Single-day balance report

PURPOSE:
  Answers "what was the cash/bank position on this date?". The opening
  balance is cumulative since inception, so the scan covers every
  partition up to and including the report date's month - not just one
  partition. Today's movements are bucketed by a caller-supplied
  classifier (payment mode, destination account, category).

ALGORITHM:
  opening = sum of signedAmount over approved records with
            anchorDate <= date-1
  today   = approved records with anchorDate == date, bucketed by
            classifier, each bucket summing signedAmount
  closing = opening + sum(today)

  Unapproved records are excluded from both sums. Records with a missing
  anchor date are skipped. Amounts coerce permissively (malformed -> 0).

FAILURE MODE:
  Any storage failure aborts the report: the caller gets an error, never
  a partially-wrong number presented as final.

DETERMINISM:
  Partitions are scanned concurrently but all aggregation is commutative
  decimal addition, and bucket output is sorted by name, so the same
  store state always yields identical reports.
*/
package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/warp/venue-ledger/generic"
	"github.com/warp/venue-ledger/logging"
)

// =============================================================================
// AGGREGATOR - Read-only reporting engine over the record store
// =============================================================================

// TargetSource supplies the externally persisted annual revenue target.
type TargetSource interface {
	AnnualTarget(ctx context.Context, fiscalYearStart int) (decimal.Decimal, error)
}

// defaultScanConcurrency bounds how many partitions are read at once.
const defaultScanConcurrency = 4

type Aggregator struct {
	store   *generic.RecordStore
	targets TargetSource
	log     *logging.Logger
}

func NewAggregator(store *generic.RecordStore, targets TargetSource, log *logging.Logger) *Aggregator {
	return &Aggregator{
		store:   store,
		targets: targets,
		log:     log.WithComponent(logging.ComponentLedger),
	}
}

// scanPartitions streams every record of the named partitions through fn,
// reading partitions concurrently. fn must be safe for concurrent calls.
func (a *Aggregator) scanPartitions(ctx context.Context, collection generic.Collection, keys []string, fn func(generic.Record) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultScanConcurrency)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			return a.store.Scan(ctx, collection, []string{key}, fn)
		})
	}
	return g.Wait()
}

// =============================================================================
// DAILY BALANCE
// =============================================================================

// Classifier buckets a record for the day's subtotals.
type Classifier func(generic.Record) string

// BucketTotal is one named subtotal of the day's movements.
type BucketTotal struct {
	Name    string          `json:"name"`
	Credits decimal.Decimal `json:"credits"`
	Debits  decimal.Decimal `json:"debits"`
	Net     decimal.Decimal `json:"net"`
}

// BalanceReport is the point-in-time position for one collection.
type BalanceReport struct {
	Date           generic.TimePoint  `json:"date"`
	Collection     generic.Collection `json:"collection"`
	OpeningBalance decimal.Decimal    `json:"openingBalance"`
	CreditsToday   decimal.Decimal    `json:"creditsToday"`
	DebitsToday    decimal.Decimal    `json:"debitsToday"`
	ClosingBalance decimal.Decimal    `json:"closingBalance"`
	Subtotals      []BucketTotal      `json:"subtotals"`
}

// DailyBalance computes the opening/closing position for a date.
func (a *Aggregator) DailyBalance(ctx context.Context, date generic.TimePoint, schema Schema, classify Classifier) (BalanceReport, error) {
	keys, err := a.store.Partitions(ctx, schema.Collection)
	if err != nil {
		return BalanceReport{}, err
	}
	// Every partition up to the report date's month: the current month's
	// partition also holds records that count toward opening.
	keys = generic.PartitionKeysThrough(keys, date)

	prev := date.AddDays(-1)

	var (
		mu      sync.Mutex
		opening decimal.Decimal
		credits decimal.Decimal
		debits  decimal.Decimal
		buckets = map[string]*BucketTotal{}
	)

	err = a.scanPartitions(ctx, schema.Collection, keys, func(rec generic.Record) error {
		if rec.AnchorDate.IsZero() || !schema.Approved(rec) {
			return nil
		}
		amount, dir := schema.Amount(rec)
		signed := SignedAmount(amount, dir)

		mu.Lock()
		defer mu.Unlock()
		switch {
		case rec.AnchorDate.BeforeOrEqual(prev):
			opening = opening.Add(signed)
		case rec.AnchorDate.Equal(date):
			name := classify(rec)
			if name == "" {
				name = "unclassified"
			}
			b, ok := buckets[name]
			if !ok {
				b = &BucketTotal{Name: name}
				buckets[name] = b
			}
			if dir == Debit {
				debits = debits.Add(amount)
				b.Debits = b.Debits.Add(amount)
			} else {
				credits = credits.Add(amount)
				b.Credits = b.Credits.Add(amount)
			}
			b.Net = b.Net.Add(signed)
		}
		return nil
	})
	if err != nil {
		return BalanceReport{}, err
	}

	subtotals := make([]BucketTotal, 0, len(buckets))
	for _, b := range buckets {
		subtotals = append(subtotals, *b)
	}
	sort.Slice(subtotals, func(i, j int) bool { return subtotals[i].Name < subtotals[j].Name })

	return BalanceReport{
		Date:           date,
		Collection:     schema.Collection,
		OpeningBalance: opening,
		CreditsToday:   credits,
		DebitsToday:    debits,
		ClosingBalance: opening.Add(credits).Sub(debits),
		Subtotals:      subtotals,
	}, nil
}
