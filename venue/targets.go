package venue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/venue-ledger/generic"
	"github.com/warp/venue-ledger/ledger"
)

// targetsDocID is the settings document holding one annual target per
// fiscal year, keyed "FY<startYear>".
const targetsDocID = "targets"

// DocTargets persists annual revenue targets in the settings collection
// and serves them to the rollup as a ledger.TargetSource.
type DocTargets struct {
	docs generic.DocumentStore
}

func NewDocTargets(docs generic.DocumentStore) *DocTargets {
	return &DocTargets{docs: docs}
}

// AnnualTarget returns the persisted target for a fiscal year. An absent
// document or field means no target was set: zero, never an error.
func (t *DocTargets) AnnualTarget(ctx context.Context, fiscalYearStart int) (decimal.Decimal, error) {
	fields, err := t.docs.Get(ctx, string(SettingsCollection), targetsDocID)
	if err != nil {
		if generic.IsNotFound(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	blob, ok := fields[targetFieldName(fiscalYearStart)]
	if !ok {
		return decimal.Zero, nil
	}
	var raw string
	if err := json.Unmarshal(blob, &raw); err != nil {
		return decimal.Zero, nil
	}
	return ledger.CoerceAmount(raw), nil
}

// SetAnnualTarget persists the target for a fiscal year.
func (t *DocTargets) SetAnnualTarget(ctx context.Context, fiscalYearStart int, target decimal.Decimal) error {
	blob, err := json.Marshal(target.String())
	if err != nil {
		return err
	}
	return t.docs.SetMerge(ctx, string(SettingsCollection), targetsDocID, map[string]json.RawMessage{
		targetFieldName(fiscalYearStart): blob,
	})
}

func targetFieldName(fiscalYearStart int) string {
	return fmt.Sprintf("FY%d", fiscalYearStart)
}
