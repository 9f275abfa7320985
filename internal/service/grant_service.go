package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightraise/couponbook-platform/internal/model"
	"github.com/brightraise/couponbook-platform/pkg/database"
)

// GrantReaderInterface defines the grant lookups the grant service needs.
type GrantReaderInterface interface {
	GetByRedemptionCodeForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.CouponGrant, error)
	MarkUsed(ctx context.Context, tx database.TxQuerier, grantID string) error
	ListByUser(ctx context.Context, userID string) ([]model.CouponGrant, error)
}

// GrantService provides business logic for coupon grant redemption and lookup.
type GrantService struct {
	pool      TxBeginner
	grantRepo GrantReaderInterface
	now       func() time.Time
}

// NewGrantService creates a new GrantService with the given pool and repository.
func NewGrantService(pool *pgxpool.Pool, grantRepo GrantReaderInterface) *GrantService {
	return &GrantService{pool: pool, grantRepo: grantRepo, now: time.Now}
}

// NewGrantServiceWithTxBeginner creates a GrantService with a custom TxBeginner.
// Primarily used for testing.
func NewGrantServiceWithTxBeginner(pool TxBeginner, grantRepo GrantReaderInterface) *GrantService {
	return &GrantService{pool: pool, grantRepo: grantRepo, now: time.Now}
}

// Redeem marks the grant carrying a redemption code as used.
// Uses SELECT FOR UPDATE so concurrent redemptions of the same code cannot
// both succeed. Returns:
//   - ErrGrantNotFound if no grant carries the code
//   - ErrGrantUsed if the grant was already redeemed
//   - ErrGrantExpired if the grant is past its expiry
func (s *GrantService) Redeem(ctx context.Context, code string) (*model.CouponGrant, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	grant, err := s.grantRepo.GetByRedemptionCodeForUpdate(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if grant.Used {
		return nil, ErrGrantUsed
	}
	if grant.Expired(s.now().UTC()) {
		return nil, ErrGrantExpired
	}

	if err := s.grantRepo.MarkUsed(ctx, tx, grant.ID); err != nil {
		return nil, fmt.Errorf("mark grant used: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	grant.Used = true
	return grant, nil
}

// ListByUser retrieves all grants held by a user.
func (s *GrantService) ListByUser(ctx context.Context, userID string) ([]model.CouponGrant, error) {
	return s.grantRepo.ListByUser(ctx, userID)
}
