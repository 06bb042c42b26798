/*
service.go - Venue-facing operations over the partition engine

PURPOSE:
  The Service is what the API layer talks to. It wires the coordinator,
  the record store and the aggregator together and adds the venue's
  read-side rules, most importantly the stale-source filter: once an
  enquiry has been promoted to a lead, the enquiry copy may still linger
  (promotion is two non-atomic writes), and listings must treat it as
  gone.
*/
package venue

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/venue-ledger/generic"
	"github.com/warp/venue-ledger/ledger"
	"github.com/warp/venue-ledger/logging"
)

type Service struct {
	store   *generic.RecordStore
	coord   *generic.Coordinator
	agg     *ledger.Aggregator
	targets *DocTargets
	log     *logging.Logger
}

func NewService(docs generic.DocumentStore, log *logging.Logger) *Service {
	store := generic.NewRecordStore(docs)
	targets := NewDocTargets(docs)
	return &Service{
		store:   store,
		coord:   generic.NewCoordinator(store, log),
		agg:     ledger.NewAggregator(store, targets, log),
		targets: targets,
		log:     log,
	}
}

// Store exposes the underlying record store for read paths that need it.
func (s *Service) Store() *generic.RecordStore { return s.store }

// Coordinator exposes the migration coordinator. Tests use this to drive
// edge cases directly.
func (s *Service) Coordinator() *generic.Coordinator { return s.coord }

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// UpsertRecord creates or updates a record, migrating it between month
// partitions when its anchor date has crossed a month boundary.
// previousPartitionKey is "" for a new record.
func (s *Service) UpsertRecord(ctx context.Context, collection generic.Collection, actor generic.Actor, rec generic.Record, previousPartitionKey string) (generic.Record, error) {
	return s.coord.Upsert(ctx, collection, actor, rec, previousPartitionKey)
}

// DeleteRecord removes a record from its known partition. No tombstones.
func (s *Service) DeleteRecord(ctx context.Context, collection generic.Collection, id generic.RecordID, knownPartitionKey string) error {
	return s.coord.Delete(ctx, collection, knownPartitionKey, id)
}

// PromoteEnquiry turns an enquiry into a booking lead. The lead keeps the
// enquiry's id and payload; its anchor date becomes the function date.
// Creation in leads happens before deletion from enquiries; a failure in
// between leaves a stale enquiry copy that the read path filters out.
func (s *Service) PromoteEnquiry(ctx context.Context, actor generic.Actor, id generic.RecordID, enquiryPartitionKey string, functionDate generic.TimePoint) (generic.Record, error) {
	enquiry, err := s.store.Get(ctx, Enquiries, enquiryPartitionKey, id)
	if err != nil {
		return generic.Record{}, err
	}
	lead := enquiry.Clone()
	lead.AnchorDate = functionDate
	return s.coord.Promote(ctx, Enquiries, Leads, actor, lead, enquiryPartitionKey)
}

// SetAnnualTarget persists the revenue target used by rollup target shares.
func (s *Service) SetAnnualTarget(ctx context.Context, fiscalYearStart int, target decimal.Decimal) error {
	return s.targets.SetAnnualTarget(ctx, fiscalYearStart, target)
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// GetRecord fetches one record from a known partition.
func (s *Service) GetRecord(ctx context.Context, collection generic.Collection, partitionKey string, id generic.RecordID) (generic.Record, error) {
	return s.store.Get(ctx, collection, partitionKey, id)
}

// AuditTrail returns a record's change history, newest first.
func (s *Service) AuditTrail(ctx context.Context, collection generic.Collection, partitionKey string, id generic.RecordID) ([]generic.AuditEntry, error) {
	rec, err := s.store.Get(ctx, collection, partitionKey, id)
	if err != nil {
		return nil, err
	}
	return generic.TrailNewestFirst(rec), nil
}

// ListMonth returns the records of one month partition, sorted by anchor
// date then id for stable output. For enquiries, copies whose id already
// exists in leads are filtered out: the lead copy is authoritative.
func (s *Service) ListMonth(ctx context.Context, collection generic.Collection, partitionKey string) ([]generic.Record, error) {
	var records []generic.Record
	err := s.store.Scan(ctx, collection, []string{partitionKey}, func(rec generic.Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if collection == Enquiries {
		promoted, err := s.leadIDs(ctx)
		if err != nil {
			return nil, err
		}
		kept := records[:0]
		for _, rec := range records {
			if _, gone := promoted[rec.ID]; !gone {
				kept = append(kept, rec)
			}
		}
		records = kept
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].AnchorDate.Equal(records[j].AnchorDate) {
			return records[i].AnchorDate.Before(records[j].AnchorDate)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// DailyBalance reports the receipts position for a date, with subtotals
// along the requested dimension ("mode", "account" or "category").
func (s *Service) DailyBalance(ctx context.Context, date generic.TimePoint, dimension string) (ledger.BalanceReport, error) {
	return s.agg.DailyBalance(ctx, date, ReceiptSchema(), Classifiers(dimension))
}

// PeriodRollup reports receipt revenue per fiscal bucket.
func (s *Service) PeriodRollup(ctx context.Context, args ledger.RollupArgs) ([]ledger.RollupBucket, error) {
	return s.agg.PeriodRollup(ctx, ReceiptSchema(), args)
}

// leadIDs collects the ids currently present anywhere in the leads
// collection, for the stale-enquiry filter.
func (s *Service) leadIDs(ctx context.Context) (map[generic.RecordID]struct{}, error) {
	ids := map[generic.RecordID]struct{}{}
	err := s.store.Scan(ctx, Leads, nil, func(rec generic.Record) error {
		ids[rec.ID] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
