package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightraise/couponbook-platform/internal/model"
	"github.com/brightraise/couponbook-platform/internal/service"
	"github.com/brightraise/couponbook-platform/pkg/database"
)

// GrantPoolInterface defines the database operations needed by GrantRepository.
type GrantPoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// GrantRepository provides data access for coupon grants using pgx.
type GrantRepository struct {
	pool GrantPoolInterface
}

// NewGrantRepository creates a new GrantRepository with the given pool.
func NewGrantRepository(pool *pgxpool.Pool) *GrantRepository {
	return &GrantRepository{pool: pool}
}

// NewGrantRepositoryWithPool creates a new GrantRepository with a custom pool interface.
// This is primarily used for testing.
func NewGrantRepositoryWithPool(pool GrantPoolInterface) *GrantRepository {
	return &GrantRepository{pool: pool}
}

const grantColumns = `id, coupon_id, user_id, grant_type, COALESCE(targeting_rule_id, ''),
	granted_at, expires_at, used, COALESCE(redemption_code, '')`

// Insert inserts a new grant record within a transaction.
// Returns service.ErrGrantExists if the user already holds this coupon.
func (r *GrantRepository) Insert(ctx context.Context, tx database.TxQuerier, grant *model.CouponGrant) error {
	query := `INSERT INTO coupon_grants
		(id, coupon_id, user_id, grant_type, targeting_rule_id, granted_at, expires_at, used, redemption_code)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, NULLIF($9, ''))`

	_, err := tx.Exec(ctx, query,
		grant.ID, grant.CouponID, grant.UserID, grant.GrantType, grant.TargetingRuleID,
		grant.GrantedAt, grant.ExpiresAt, grant.Used, grant.RedemptionCode)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrGrantExists
		}
		return fmt.Errorf("insert grant: %w", err)
	}
	return nil
}

// Exists reports whether the user already holds a grant for the coupon.
func (r *GrantRepository) Exists(ctx context.Context, userID, couponID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM coupon_grants WHERE user_id = $1 AND coupon_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, couponID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check grant exists: %w", err)
	}
	return exists, nil
}

// CountByCoupon returns the number of grants issued for a coupon.
func (r *GrantRepository) CountByCoupon(ctx context.Context, couponID string) (int, error) {
	query := `SELECT COUNT(*) FROM coupon_grants WHERE coupon_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, couponID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count grants for coupon %s: %w", couponID, err)
	}
	return count, nil
}

// GetByRedemptionCodeForUpdate retrieves a grant by redemption code with a
// row lock, so redemption can check and flip the used flag atomically.
// Returns service.ErrGrantNotFound if no grant carries the code.
func (r *GrantRepository) GetByRedemptionCodeForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.CouponGrant, error) {
	query := `SELECT ` + grantColumns + ` FROM coupon_grants WHERE redemption_code = $1 FOR UPDATE`

	grant, err := scanGrant(tx.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrGrantNotFound
		}
		return nil, fmt.Errorf("get grant by redemption code: %w", err)
	}
	return grant, nil
}

// MarkUsed flips a grant's used flag within a transaction.
func (r *GrantRepository) MarkUsed(ctx context.Context, tx database.TxQuerier, grantID string) error {
	query := `UPDATE coupon_grants SET used = TRUE WHERE id = $1`

	_, err := tx.Exec(ctx, query, grantID)
	if err != nil {
		return fmt.Errorf("mark grant %s used: %w", grantID, err)
	}
	return nil
}

// ListByUser retrieves a user's grants, newest first.
// On success, returns an empty slice (not nil) when no grants exist.
func (r *GrantRepository) ListByUser(ctx context.Context, userID string) ([]model.CouponGrant, error) {
	query := `SELECT ` + grantColumns + ` FROM coupon_grants WHERE user_id = $1 ORDER BY granted_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list grants for user %s: %w", userID, err)
	}
	defer rows.Close()

	grants := []model.CouponGrant{}
	for rows.Next() {
		grant, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, *grant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grants: %w", err)
	}
	return grants, nil
}

// IncrementGrantCounter bumps the coupon's granted counter within a transaction.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *GrantRepository) IncrementGrantCounter(ctx context.Context, tx database.TxQuerier, couponID string) error {
	query := `UPDATE coupons SET granted_count = granted_count + 1 WHERE id = $1`

	tag, err := tx.Exec(ctx, query, couponID)
	if err != nil {
		return fmt.Errorf("increment grant counter for %s: %w", couponID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

func scanGrant(row pgx.Row) (*model.CouponGrant, error) {
	var g model.CouponGrant
	err := row.Scan(
		&g.ID, &g.CouponID, &g.UserID, &g.GrantType, &g.TargetingRuleID,
		&g.GrantedAt, &g.ExpiresAt, &g.Used, &g.RedemptionCode,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
