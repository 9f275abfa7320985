package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyEntry is returned for an entry with no lines at all.
	ErrEmptyEntry = errors.New("journal entry has no lines")

	// ErrMissingDebit is returned when an entry has no debit line.
	ErrMissingDebit = errors.New("journal entry has no debit lines")

	// ErrMissingCredit is returned when an entry has no credit line.
	ErrMissingCredit = errors.New("journal entry has no credit lines")

	// ErrNegativeAmount is returned when a line carries a negative amount.
	// Reversals are expressed by swapping sides, never by negating amounts.
	ErrNegativeAmount = errors.New("journal line amount is negative")
)

// ImbalanceError reports a debit/credit mismatch with both totals so the
// operator can see how far off the entry is. The totals must never be
// silently coerced into balance.
type ImbalanceError struct {
	DebitCents  int64
	CreditCents int64
}

func (e *ImbalanceError) Error() string {
	return fmt.Sprintf("journal entry does not balance: debits=%d credits=%d", e.DebitCents, e.CreditCents)
}

// ValidateEntry is the authoritative gate every journal entry must pass
// before persistence. A nil return means the entry balances: every line
// amount is non-negative, the debit and credit totals are equal, and
// both sides have at least one line.
func ValidateEntry(lines []JournalLine) error {
	if len(lines) == 0 {
		return ErrEmptyEntry
	}

	var debits, credits int64
	var hasDebit, hasCredit bool
	for _, l := range lines {
		if l.AmountCents < 0 {
			return fmt.Errorf("%w: %s %d", ErrNegativeAmount, l.AccountCode, l.AmountCents)
		}
		switch l.Side {
		case Debit:
			debits += l.AmountCents
			hasDebit = true
		case Credit:
			credits += l.AmountCents
			hasCredit = true
		}
	}

	if !hasDebit {
		return ErrMissingDebit
	}
	if !hasCredit {
		return ErrMissingCredit
	}
	if debits != credits {
		return &ImbalanceError{DebitCents: debits, CreditCents: credits}
	}
	return nil
}
