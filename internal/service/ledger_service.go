package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightraise/couponbook-platform/internal/ledger"
	"github.com/brightraise/couponbook-platform/pkg/database"
)

// JournalRepositoryInterface defines the interface for journal entry data access.
type JournalRepositoryInterface interface {
	InsertEntry(ctx context.Context, tx database.TxQuerier, entryID string, event *ledger.Event) error
	GetEntry(ctx context.Context, entryID string) (*ledger.EntryRecord, error)
	TrialBalance(ctx context.Context) ([]ledger.TrialBalanceRow, error)
}

// LedgerService records financial events as journal entries. Every event
// passes the balance gate before anything is written; an unbalanced entry
// is never persisted, and the validation error reaches the caller intact
// so the totals can be inspected.
type LedgerService struct {
	pool        TxBeginner
	journalRepo JournalRepositoryInterface
}

// NewLedgerService creates a new LedgerService with the given pool and repository.
func NewLedgerService(pool *pgxpool.Pool, journalRepo JournalRepositoryInterface) *LedgerService {
	return &LedgerService{pool: pool, journalRepo: journalRepo}
}

// NewLedgerServiceWithTxBeginner creates a LedgerService with a custom TxBeginner.
// Primarily used for testing.
func NewLedgerServiceWithTxBeginner(pool TxBeginner, journalRepo JournalRepositoryInterface) *LedgerService {
	return &LedgerService{pool: pool, journalRepo: journalRepo}
}

// RecordPurchase records a coupon-book sale.
func (s *LedgerService) RecordPurchase(ctx context.Context, purchaseID string, grossCents, feeCents, discountCents int64, createdBy string) (*ledger.EntryRecord, error) {
	event := ledger.NewPurchaseEvent(purchaseID, grossCents, feeCents, discountCents, createdBy)
	return s.record(ctx, &event)
}

// RecordRefund records a purchase refund.
func (s *LedgerService) RecordRefund(ctx context.Context, refundID string, refundCents, feeRefundCents int64, createdBy string) (*ledger.EntryRecord, error) {
	event := ledger.NewRefundEvent(refundID, refundCents, feeRefundCents, createdBy)
	return s.record(ctx, &event)
}

// RecordDiscount records a post-sale courtesy discount.
func (s *LedgerService) RecordDiscount(ctx context.Context, discountID string, amountCents int64, createdBy string) (*ledger.EntryRecord, error) {
	event := ledger.NewDiscountEvent(discountID, amountCents, createdBy)
	return s.record(ctx, &event)
}

// RecordPayout records a disbursement to a school.
func (s *LedgerService) RecordPayout(ctx context.Context, payoutID, schoolID string, amountCents int64, createdBy string) (*ledger.EntryRecord, error) {
	event := ledger.NewPayoutEvent(payoutID, schoolID, amountCents, createdBy)
	return s.record(ctx, &event)
}

// record runs the balance gate, then writes the header and lines as one
// atomic unit.
func (s *LedgerService) record(ctx context.Context, event *ledger.Event) (*ledger.EntryRecord, error) {
	if err := ledger.ValidateEntry(event.Lines); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnbalancedEntry, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	entryID := uuid.NewString()
	if err := s.journalRepo.InsertEntry(ctx, tx, entryID, event); err != nil {
		return nil, fmt.Errorf("persist journal entry: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &ledger.EntryRecord{ID: entryID, Event: *event}, nil
}

// GetEntry retrieves a persisted journal entry with its lines.
func (s *LedgerService) GetEntry(ctx context.Context, entryID string) (*ledger.EntryRecord, error) {
	return s.journalRepo.GetEntry(ctx, entryID)
}

// TrialBalance returns per-account debit and credit totals.
func (s *LedgerService) TrialBalance(ctx context.Context) ([]ledger.TrialBalanceRow, error) {
	return s.journalRepo.TrialBalance(ctx)
}
