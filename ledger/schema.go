/*
Package ledger derives financial reports from the partitioned record store.

PURPOSE:
  Read-only aggregation: scan one or more collections/partitions, filter
  by approval state and date, and produce either a single-day balance
  report or a multi-period revenue rollup. Aggregation never mutates the
  store and is reproducible from the same filtered scan every time.

SCHEMA:
  Record payloads are opaque maps, so each collection that participates
  in reporting supplies a Schema: how to decide approval, how to read the
  signed amount, and how to enumerate the dated payment lines inside a
  record. All extraction is defensive - a missing or malformed field
  coerces to zero or is skipped, never aborts a scan.

SEE ALSO:
  - balance.go: Single-day opening/closing balance
  - rollup.go: Fiscal-year revenue rollups
*/
package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/venue-ledger/generic"
)

// =============================================================================
// DIRECTION - Whether an amount adds to or subtracts from the balance
// =============================================================================

type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// SignedAmount applies the direction sign: credits positive, debits negative.
func SignedAmount(amount decimal.Decimal, dir Direction) decimal.Decimal {
	if dir == Debit {
		return amount.Neg()
	}
	return amount
}

// =============================================================================
// SCHEMA - How to read money facts out of an opaque payload
// =============================================================================

// PaymentLine is one dated money movement inside a record. Rollups assign
// each line to the calendar month it falls in, independent of the record's
// own anchor date.
type PaymentLine struct {
	Date      generic.TimePoint
	Amount    decimal.Decimal
	Direction Direction
}

// Schema describes one collection's reporting shape.
type Schema struct {
	Collection generic.Collection

	// Approved reports whether the record participates in reports at all.
	// Unapproved records are excluded entirely, never provisionally counted.
	Approved func(generic.Record) bool

	// Amount returns the record-level amount and direction.
	Amount func(generic.Record) (decimal.Decimal, Direction)

	// Payments enumerates the dated payment lines of a record. May be nil,
	// in which case the record-level amount at the anchor date is used.
	Payments func(generic.Record) []PaymentLine
}

// paymentLines resolves the payment list for a record, falling back to a
// single line at the anchor date.
func (s Schema) paymentLines(rec generic.Record) []PaymentLine {
	if s.Payments != nil {
		return s.Payments(rec)
	}
	amount, dir := s.Amount(rec)
	return []PaymentLine{{Date: rec.AnchorDate, Amount: amount, Direction: dir}}
}

// =============================================================================
// DEFENSIVE COERCION - Legacy payloads hold amounts in several shapes
// =============================================================================

// CoerceAmount turns whatever a payload holds into a decimal. Strings may
// carry thousands separators; anything unparseable coerces to zero so a
// malformed record cannot corrupt a running sum.
func CoerceAmount(v any) decimal.Decimal {
	switch raw := v.(type) {
	case nil:
		return decimal.Zero
	case float64:
		return decimal.NewFromFloat(raw)
	case int:
		return decimal.NewFromInt(int64(raw))
	case int64:
		return decimal.NewFromInt(raw)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
		if s == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// CoerceDirection reads a direction value, defaulting to Credit for
// anything unrecognised.
func CoerceDirection(v any) Direction {
	s, _ := v.(string)
	if strings.EqualFold(strings.TrimSpace(s), string(Debit)) {
		return Debit
	}
	return Credit
}
