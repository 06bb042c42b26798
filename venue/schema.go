package venue

import (
	"github.com/shopspring/decimal"

	"github.com/warp/venue-ledger/generic"
	"github.com/warp/venue-ledger/ledger"
)

// =============================================================================
// RECEIPT SCHEMA - How the aggregator reads receipts
// =============================================================================

// ReceiptSchema describes the receipts collection to the ledger engine.
// Every extractor is defensive: missing or malformed payload fields
// coerce to zero / credit / not-approved rather than erroring.
func ReceiptSchema() ledger.Schema {
	return ledger.Schema{
		Collection: Receipts,
		Approved: func(rec generic.Record) bool {
			return rec.BoolField(FieldApproved)
		},
		Amount: func(rec generic.Record) (decimal.Decimal, ledger.Direction) {
			return ledger.CoerceAmount(rec.Field(FieldAmount)),
				ledger.CoerceDirection(rec.Field(FieldDirection))
		},
		Payments: receiptPayments,
	}
}

// receiptPayments enumerates the dated payment lines inside a receipt.
// Receipts without an explicit payment list degrade to a single line for
// the full amount on the receipt date. Lines with unparseable dates are
// dropped; malformed amounts coerce to zero.
func receiptPayments(rec generic.Record) []ledger.PaymentLine {
	raw, _ := rec.Field(FieldPayments).([]any)
	if len(raw) == 0 {
		amount := ledger.CoerceAmount(rec.Field(FieldAmount))
		return []ledger.PaymentLine{{
			Date:      rec.AnchorDate,
			Amount:    amount,
			Direction: ledger.CoerceDirection(rec.Field(FieldDirection)),
		}}
	}

	lines := make([]ledger.PaymentLine, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		dateStr, _ := entry["date"].(string)
		date, err := generic.ParseTimePoint(dateStr)
		if err != nil {
			continue
		}
		lines = append(lines, ledger.PaymentLine{
			Date:      date,
			Amount:    ledger.CoerceAmount(entry[FieldAmount]),
			Direction: ledger.CoerceDirection(entry[FieldDirection]),
		})
	}
	return lines
}

// =============================================================================
// CLASSIFIERS - Daily balance subtotal dimensions
// =============================================================================

// Classifiers maps a requested dimension name to a bucket function.
// Unknown dimensions fall back to payment mode.
func Classifiers(dimension string) ledger.Classifier {
	field := FieldMode
	switch dimension {
	case "account":
		field = FieldAccount
	case "category":
		field = FieldCategory
	}
	return func(rec generic.Record) string {
		return rec.StringField(field)
	}
}
