package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/brightraise/couponbook-platform/internal/ledger"
	"github.com/brightraise/couponbook-platform/internal/model"
	"github.com/brightraise/couponbook-platform/pkg/database"
)

// mockTx is a mock implementation of pgx.Tx for testing transactions.
type mockTx struct {
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error
	committed  bool
	rolledBack bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (m *mockTx) Commit(ctx context.Context) error {
	m.committed = true
	if m.commitFn != nil {
		return m.commitFn(ctx)
	}
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	m.rolledBack = true
	if m.rollbackFn != nil {
		return m.rollbackFn(ctx)
	}
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *mockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *mockTx) Conn() *pgx.Conn {
	return nil
}

// mockTxBeginner is a mock implementation of TxBeginner.
type mockTxBeginner struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return &mockTx{}, nil
}

// mockRuleRepository is a mock implementation of RuleRepositoryInterface.
type mockRuleRepository struct {
	insertFn    func(ctx context.Context, rule *model.TargetingRule) error
	getByIDFn   func(ctx context.Context, id string) (*model.TargetingRule, error)
	listFn      func(ctx context.Context) ([]model.TargetingRule, error)
	updateFn    func(ctx context.Context, rule *model.TargetingRule) error
	setActiveFn func(ctx context.Context, id string, active bool) error
}

func (m *mockRuleRepository) Insert(ctx context.Context, rule *model.TargetingRule) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, rule)
	}
	return nil
}

func (m *mockRuleRepository) GetByID(ctx context.Context, id string) (*model.TargetingRule, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRuleRepository) List(ctx context.Context) ([]model.TargetingRule, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []model.TargetingRule{}, nil
}

func (m *mockRuleRepository) Update(ctx context.Context, rule *model.TargetingRule) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, rule)
	}
	return nil
}

func (m *mockRuleRepository) SetActive(ctx context.Context, id string, active bool) error {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, id, active)
	}
	return nil
}

// mockProfileRepository is a mock implementation of ProfileRepositoryInterface.
type mockProfileRepository struct {
	listAllFn func(ctx context.Context) ([]model.UserProfile, error)
}

func (m *mockProfileRepository) ListAll(ctx context.Context) ([]model.UserProfile, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return []model.UserProfile{}, nil
}

// mockGrantRepository is a mock implementation of both grant repository interfaces.
type mockGrantRepository struct {
	insertFn           func(ctx context.Context, tx database.TxQuerier, grant *model.CouponGrant) error
	existsFn           func(ctx context.Context, userID, couponID string) (bool, error)
	countByCouponFn    func(ctx context.Context, couponID string) (int, error)
	incrementCounterFn func(ctx context.Context, tx database.TxQuerier, couponID string) error
	getByCodeFn        func(ctx context.Context, tx database.TxQuerier, code string) (*model.CouponGrant, error)
	markUsedFn         func(ctx context.Context, tx database.TxQuerier, grantID string) error
	listByUserFn       func(ctx context.Context, userID string) ([]model.CouponGrant, error)
}

func (m *mockGrantRepository) Insert(ctx context.Context, tx database.TxQuerier, grant *model.CouponGrant) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, grant)
	}
	return nil
}

func (m *mockGrantRepository) Exists(ctx context.Context, userID, couponID string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, userID, couponID)
	}
	return false, nil
}

func (m *mockGrantRepository) CountByCoupon(ctx context.Context, couponID string) (int, error) {
	if m.countByCouponFn != nil {
		return m.countByCouponFn(ctx, couponID)
	}
	return 0, nil
}

func (m *mockGrantRepository) IncrementGrantCounter(ctx context.Context, tx database.TxQuerier, couponID string) error {
	if m.incrementCounterFn != nil {
		return m.incrementCounterFn(ctx, tx, couponID)
	}
	return nil
}

func (m *mockGrantRepository) GetByRedemptionCodeForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.CouponGrant, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, tx, code)
	}
	return nil, ErrGrantNotFound
}

func (m *mockGrantRepository) MarkUsed(ctx context.Context, tx database.TxQuerier, grantID string) error {
	if m.markUsedFn != nil {
		return m.markUsedFn(ctx, tx, grantID)
	}
	return nil
}

func (m *mockGrantRepository) ListByUser(ctx context.Context, userID string) ([]model.CouponGrant, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return []model.CouponGrant{}, nil
}

// mockJournalRepository is a mock implementation of JournalRepositoryInterface.
type mockJournalRepository struct {
	insertEntryFn  func(ctx context.Context, tx database.TxQuerier, entryID string, event *ledger.Event) error
	getEntryFn     func(ctx context.Context, entryID string) (*ledger.EntryRecord, error)
	trialBalanceFn func(ctx context.Context) ([]ledger.TrialBalanceRow, error)
}

func (m *mockJournalRepository) InsertEntry(ctx context.Context, tx database.TxQuerier, entryID string, event *ledger.Event) error {
	if m.insertEntryFn != nil {
		return m.insertEntryFn(ctx, tx, entryID, event)
	}
	return nil
}

func (m *mockJournalRepository) GetEntry(ctx context.Context, entryID string) (*ledger.EntryRecord, error) {
	if m.getEntryFn != nil {
		return m.getEntryFn(ctx, entryID)
	}
	return nil, ErrEntryNotFound
}

func (m *mockJournalRepository) TrialBalance(ctx context.Context) ([]ledger.TrialBalanceRow, error) {
	if m.trialBalanceFn != nil {
		return m.trialBalanceFn(ctx)
	}
	return []ledger.TrialBalanceRow{}, nil
}
