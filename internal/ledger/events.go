package ledger

import (
	"fmt"
	"time"
)

// EventType classifies the business event behind a journal entry.
type EventType string

const (
	EventPurchase EventType = "purchase"
	EventRefund   EventType = "refund"
	EventDiscount EventType = "discount"
	EventPayout   EventType = "payout"
)

// Event is one business event expressed as a balanced set of journal
// lines. SchoolID is set only for payouts.
type Event struct {
	Type        EventType     `json:"type"`
	OccurredAt  time.Time     `json:"occurred_at"`
	Description string        `json:"description"`
	SourceID    string        `json:"source_id"`
	SchoolID    string        `json:"school_id,omitempty"`
	CreatedBy   string        `json:"created_by"`
	Lines       []JournalLine `json:"lines"`
}

// NewPurchaseEvent decomposes a coupon-book sale into its journal lines.
// The buyer pays gross minus discount; the processor deducts its fee
// before deposit, so cash receives gross − discount − fee. Revenue is
// recognized at gross with the discount posted as contra-revenue, which
// keeps total debits equal to the gross credit. Zero-amount lines are
// omitted.
func NewPurchaseEvent(purchaseID string, grossCents, feeCents, discountCents int64, createdBy string) Event {
	lines := []JournalLine{
		{AccountCode: AccountCash, AmountCents: grossCents - discountCents - feeCents, Side: Debit},
		{AccountCode: AccountProcessingFee, AmountCents: feeCents, Side: Debit},
		{AccountCode: AccountDiscounts, AmountCents: discountCents, Side: Debit},
		{AccountCode: AccountRevenue, AmountCents: grossCents, Side: Credit},
	}
	return Event{
		Type:        EventPurchase,
		OccurredAt:  time.Now().UTC(),
		Description: fmt.Sprintf("coupon book purchase %s", purchaseID),
		SourceID:    purchaseID,
		CreatedBy:   createdBy,
		Lines:       dropZeroLines(lines),
	}
}

// NewRefundEvent mirrors a purchase with the sides reversed: revenue is
// backed out at the refunded amount, cash goes out net of any fee the
// processor returns, and the fee refund reverses the original expense.
func NewRefundEvent(refundID string, refundCents, feeRefundCents int64, createdBy string) Event {
	lines := []JournalLine{
		{AccountCode: AccountRevenue, AmountCents: refundCents, Side: Debit},
		{AccountCode: AccountCash, AmountCents: refundCents - feeRefundCents, Side: Credit},
		{AccountCode: AccountProcessingFee, AmountCents: feeRefundCents, Side: Credit},
	}
	return Event{
		Type:        EventRefund,
		OccurredAt:  time.Now().UTC(),
		Description: fmt.Sprintf("purchase refund %s", refundID),
		SourceID:    refundID,
		CreatedBy:   createdBy,
		Lines:       dropZeroLines(lines),
	}
}

// NewDiscountEvent records a post-sale courtesy discount returned to the
// buyer: contra-revenue in, cash out.
func NewDiscountEvent(discountID string, amountCents int64, createdBy string) Event {
	lines := []JournalLine{
		{AccountCode: AccountDiscounts, AmountCents: amountCents, Side: Debit},
		{AccountCode: AccountCash, AmountCents: amountCents, Side: Credit},
	}
	return Event{
		Type:        EventDiscount,
		OccurredAt:  time.Now().UTC(),
		Description: fmt.Sprintf("courtesy discount %s", discountID),
		SourceID:    discountID,
		CreatedBy:   createdBy,
		Lines:       dropZeroLines(lines),
	}
}

// NewPayoutEvent records a disbursement of fundraising proceeds to a
// school: the payable is settled and cash goes out.
func NewPayoutEvent(payoutID, schoolID string, amountCents int64, createdBy string) Event {
	lines := []JournalLine{
		{AccountCode: AccountSchoolPayable, AmountCents: amountCents, Side: Debit},
		{AccountCode: AccountCash, AmountCents: amountCents, Side: Credit},
	}
	return Event{
		Type:        EventPayout,
		OccurredAt:  time.Now().UTC(),
		Description: fmt.Sprintf("school payout %s", payoutID),
		SourceID:    payoutID,
		SchoolID:    schoolID,
		CreatedBy:   createdBy,
		Lines:       dropZeroLines(lines),
	}
}

// dropZeroLines removes zero-amount postings so optional components
// (no fee, no discount) don't produce noise lines.
func dropZeroLines(lines []JournalLine) []JournalLine {
	out := lines[:0]
	for _, l := range lines {
		if l.AmountCents != 0 {
			out = append(out, l)
		}
	}
	return out
}
