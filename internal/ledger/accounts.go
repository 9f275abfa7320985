// Package ledger builds and validates double-entry journal representations
// of the platform's financial events. Event constructors and the balance
// gate are pure functions over int64 cents; persistence belongs to the
// caller, which must refuse any entry that fails ValidateEntry.
package ledger

// AccountCode identifies a ledger account. The chart of accounts is a
// closed vocabulary; nothing in this package invents new codes.
type AccountCode string

const (
	AccountCash          AccountCode = "cash"
	AccountProcessingFee AccountCode = "processing_fees"
	AccountDiscounts     AccountCode = "discounts"
	AccountRevenue       AccountCode = "revenue"
	AccountSchoolPayable AccountCode = "school_payable"
)

// ChartOfAccounts lists every recognized account code.
var ChartOfAccounts = []AccountCode{
	AccountCash,
	AccountProcessingFee,
	AccountDiscounts,
	AccountRevenue,
	AccountSchoolPayable,
}

// Side distinguishes the debit and credit columns of a journal line.
type Side string

const (
	Debit  Side = "debit"
	Credit Side = "credit"
)

// JournalLine is one debit or credit posting within a journal entry.
// Amounts are non-negative cents; the side carries the sign.
type JournalLine struct {
	AccountCode AccountCode `json:"account_code"`
	AmountCents int64       `json:"amount_cents"`
	Side        Side        `json:"side"`
}
