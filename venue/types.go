/*
Package venue binds the generic partition engine to the venue business:
enquiries, booking leads, and money receipts.

Each collection anchors its records on a different business date - the
enquiry date, the booked function date, the receipt date - but the caller
maps that date onto the record envelope's anchor date, so the engine
stays ignorant of which field it was.
*/
package venue

import (
	"github.com/warp/venue-ledger/generic"
)

// =============================================================================
// COLLECTIONS
// =============================================================================

const (
	// Enquiries holds incoming venue enquiries, anchored on the enquiry date.
	Enquiries generic.Collection = "enquiries"

	// Leads holds booking leads, anchored on the function date. Enquiries
	// are promoted here once a booking becomes likely.
	Leads generic.Collection = "leads"

	// Receipts holds money receipts and payouts, anchored on the receipt
	// date. This is the collection the ledger reports are derived from.
	Receipts generic.Collection = "receipts"

	// SettingsCollection holds configuration documents (annual targets).
	// Not partitioned by month.
	SettingsCollection generic.Collection = "settings"
)

// Well-known receipt payload fields. Payloads are open maps, so absence of
// any of these is tolerated everywhere.
const (
	FieldAmount    = "amount"
	FieldDirection = "direction"
	FieldApproved  = "approved"
	FieldMode      = "mode"     // payment mode: cash, bank, upi, ...
	FieldAccount   = "account"  // destination account
	FieldCategory  = "category" // revenue category tag
	FieldPayments  = "payments" // list of dated payment lines
)
