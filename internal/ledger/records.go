package ledger

// EntryRecord is a persisted journal entry: the event plus its storage id.
type EntryRecord struct {
	ID string `json:"id"`
	Event
}

// TrialBalanceRow is one account's debit and credit totals across the ledger.
type TrialBalanceRow struct {
	AccountCode AccountCode `json:"account_code"`
	DebitCents  int64       `json:"debit_cents"`
	CreditCents int64       `json:"credit_cents"`
}
