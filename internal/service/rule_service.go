package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightraise/couponbook-platform/internal/model"
	"github.com/brightraise/couponbook-platform/internal/targeting"
	"github.com/brightraise/couponbook-platform/pkg/database"
)

// RuleRepositoryInterface defines the interface for targeting rule data access.
type RuleRepositoryInterface interface {
	Insert(ctx context.Context, rule *model.TargetingRule) error
	GetByID(ctx context.Context, id string) (*model.TargetingRule, error)
	List(ctx context.Context) ([]model.TargetingRule, error)
	Update(ctx context.Context, rule *model.TargetingRule) error
	SetActive(ctx context.Context, id string, active bool) error
}

// ProfileRepositoryInterface defines the interface for user profile data access.
type ProfileRepositoryInterface interface {
	ListAll(ctx context.Context) ([]model.UserProfile, error)
}

// GrantRepositoryInterface defines the interface for coupon grant data access.
type GrantRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, grant *model.CouponGrant) error
	Exists(ctx context.Context, userID, couponID string) (bool, error)
	CountByCoupon(ctx context.Context, couponID string) (int, error)
	IncrementGrantCounter(ctx context.Context, tx database.TxQuerier, couponID string) error
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RuleValidationError carries the structural problems that made a rule
// unacceptable. It unwraps to ErrInvalidRequest.
type RuleValidationError struct {
	Errors []string
}

func (e *RuleValidationError) Error() string {
	return "invalid targeting rule: " + strings.Join(e.Errors, "; ")
}

func (e *RuleValidationError) Unwrap() error { return ErrInvalidRequest }

// RuleService provides business logic for targeting rules: definition,
// audience preview, and grant fan-out. The matching itself is delegated to
// the pure engine in the targeting package.
type RuleService struct {
	pool        TxBeginner
	ruleRepo    RuleRepositoryInterface
	profileRepo ProfileRepositoryInterface
	grantRepo   GrantRepositoryInterface
}

// NewRuleService creates a new RuleService with the given pool and repositories.
func NewRuleService(pool *pgxpool.Pool, ruleRepo RuleRepositoryInterface, profileRepo ProfileRepositoryInterface, grantRepo GrantRepositoryInterface) *RuleService {
	return &RuleService{pool: pool, ruleRepo: ruleRepo, profileRepo: profileRepo, grantRepo: grantRepo}
}

// NewRuleServiceWithTxBeginner creates a RuleService with a custom TxBeginner.
// Primarily used for testing.
func NewRuleServiceWithTxBeginner(pool TxBeginner, ruleRepo RuleRepositoryInterface, profileRepo ProfileRepositoryInterface, grantRepo GrantRepositoryInterface) *RuleService {
	return &RuleService{pool: pool, ruleRepo: ruleRepo, profileRepo: profileRepo, grantRepo: grantRepo}
}

// Create validates and persists a new targeting rule.
// Returns a *RuleValidationError listing the problems when the rule is
// structurally invalid.
func (s *RuleService) Create(ctx context.Context, req *model.CreateRuleRequest) (*model.TargetingRule, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	now := time.Now().UTC()
	rule := &model.TargetingRule{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Conditions: req.Conditions,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}

	if result := targeting.ValidateRule(*rule); !result.Valid {
		return nil, &RuleValidationError{Errors: result.Errors}
	}

	if err := s.ruleRepo.Insert(ctx, rule); err != nil {
		return nil, fmt.Errorf("create rule: %w", err)
	}
	return rule, nil
}

// Get retrieves a rule by id.
// Returns ErrRuleNotFound if the rule doesn't exist.
func (s *RuleService) Get(ctx context.Context, id string) (*model.TargetingRule, error) {
	rule, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get rule: %w", err)
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}
	return rule, nil
}

// List retrieves all targeting rules.
func (s *RuleService) List(ctx context.Context) ([]model.TargetingRule, error) {
	return s.ruleRepo.List(ctx)
}

// Update validates and replaces a rule's definition.
func (s *RuleService) Update(ctx context.Context, id string, req *model.UpdateRuleRequest) (*model.TargetingRule, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Name = req.Name
	updated.Conditions = req.Conditions
	if req.Active != nil {
		updated.Active = *req.Active
	}
	updated.UpdatedAt = time.Now().UTC()

	if result := targeting.ValidateRule(updated); !result.Valid {
		return nil, &RuleValidationError{Errors: result.Errors}
	}

	if err := s.ruleRepo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update rule: %w", err)
	}
	return &updated, nil
}

// Deactivate turns a rule off without deleting its history.
func (s *RuleService) Deactivate(ctx context.Context, id string) error {
	return s.ruleRepo.SetActive(ctx, id, false)
}

// Preview counts how many known profiles the rule currently matches,
// without creating any grants.
func (s *RuleService) Preview(ctx context.Context, id string) (*model.PreviewRuleResponse, error) {
	rule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	profiles, err := s.profileRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	return &model.PreviewRuleResponse{
		RuleID:        rule.ID,
		MatchingUsers: targeting.MatchingUserCount(*rule, profiles),
	}, nil
}

// Apply grants a coupon to every profile the rule matches, skipping users
// who already hold the coupon and stopping at the grant limit. All grants
// and counter bumps commit in one transaction.
// Returns ErrRuleInactive for deactivated rules and ErrGrantLimitReached
// when the limit is already exhausted before any grant is issued.
func (s *RuleService) Apply(ctx context.Context, id string, req *model.ApplyRuleRequest) (*model.ApplyRuleResponse, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	rule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rule.Active {
		return nil, ErrRuleInactive
	}

	profiles, err := s.profileRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	matched := targeting.MatchingUsers(*rule, profiles)

	issued, err := s.grantRepo.CountByCoupon(ctx, req.CouponID)
	if err != nil {
		return nil, fmt.Errorf("count grants: %w", err)
	}
	remaining := -1 // unlimited
	if req.GrantLimit > 0 {
		remaining = req.GrantLimit - issued
		if remaining <= 0 {
			return nil, ErrGrantLimitReached
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	resp := &model.ApplyRuleResponse{RuleID: rule.ID, Matched: len(matched)}
	now := time.Now().UTC()
	for _, profile := range matched {
		if remaining == 0 {
			resp.Skipped++
			continue
		}

		exists, err := s.grantRepo.Exists(ctx, profile.UserID, req.CouponID)
		if err != nil {
			return nil, fmt.Errorf("check existing grant: %w", err)
		}
		if exists {
			resp.Skipped++
			continue
		}

		grant := &model.CouponGrant{
			ID:              uuid.NewString(),
			CouponID:        req.CouponID,
			UserID:          profile.UserID,
			GrantType:       model.GrantTargeted,
			TargetingRuleID: rule.ID,
			GrantedAt:       now,
			ExpiresAt:       req.ExpiresAt,
			RedemptionCode:  newRedemptionCode(),
		}
		err = s.grantRepo.Insert(ctx, tx, grant)
		if err != nil {
			// Lost a race with another writer: skip, don't fail the batch.
			if errors.Is(err, ErrGrantExists) {
				resp.Skipped++
				continue
			}
			return nil, fmt.Errorf("insert grant: %w", err)
		}

		if err := s.grantRepo.IncrementGrantCounter(ctx, tx, req.CouponID); err != nil {
			return nil, fmt.Errorf("increment grant counter: %w", err)
		}

		resp.Granted++
		if remaining > 0 {
			remaining--
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return resp, nil
}

// newRedemptionCode returns a random 16-hex-character code.
func newRedemptionCode() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return strings.ToUpper(hex.EncodeToString(buf))
}
