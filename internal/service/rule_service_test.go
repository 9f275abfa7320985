package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightraise/couponbook-platform/internal/model"
	"github.com/brightraise/couponbook-platform/pkg/database"
)

func zipRule(id string, active bool) *model.TargetingRule {
	return &model.TargetingRule{
		ID:     id,
		Name:   "birmingham zips",
		Active: active,
		Conditions: model.ConditionGroups{
			Any: []model.TargetingCondition{
				{Field: model.FieldZipCode, Operator: model.OpIn, Value: []any{"35223", "35213"}},
			},
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestRuleService_Create_Success(t *testing.T) {
	var captured *model.TargetingRule
	ruleRepo := &mockRuleRepository{
		insertFn: func(ctx context.Context, rule *model.TargetingRule) error {
			captured = rule
			return nil
		},
	}

	svc := NewRuleServiceWithTxBeginner(&mockTxBeginner{}, ruleRepo, &mockProfileRepository{}, &mockGrantRepository{})
	req := &model.CreateRuleRequest{
		Name: "birmingham zips",
		Conditions: model.ConditionGroups{
			Any: []model.TargetingCondition{
				{Field: model.FieldZipCode, Operator: model.OpIn, Value: []any{"35223"}},
			},
		},
	}

	rule, err := svc.Create(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.NotEmpty(t, rule.ID)
	assert.Equal(t, "birmingham zips", captured.Name)
	assert.True(t, captured.Active, "rules default to active")
}

func TestRuleService_Create_InvalidRule(t *testing.T) {
	inserted := false
	ruleRepo := &mockRuleRepository{
		insertFn: func(ctx context.Context, rule *model.TargetingRule) error {
			inserted = true
			return nil
		},
	}

	svc := NewRuleServiceWithTxBeginner(&mockTxBeginner{}, ruleRepo, &mockProfileRepository{}, &mockGrantRepository{})
	req := &model.CreateRuleRequest{
		Name: "bad rule",
		Conditions: model.ConditionGroups{
			All: []model.TargetingCondition{
				{Field: "shoe_size", Operator: model.OpEquals, Value: "9"},
			},
		},
	}

	rule, err := svc.Create(context.Background(), req)

	require.Error(t, err)
	assert.Nil(t, rule)
	assert.False(t, inserted, "invalid rule must not be persisted")

	var validationErr *RuleValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.NotEmpty(t, validationErr.Errors)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestRuleService_Create_NilRequest(t *testing.T) {
	svc := NewRuleServiceWithTxBeginner(&mockTxBeginner{}, &mockRuleRepository{}, &mockProfileRepository{}, &mockGrantRepository{})

	rule, err := svc.Create(context.Background(), nil)

	require.Error(t, err)
	assert.Nil(t, rule)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestRuleService_Get_NotFound(t *testing.T) {
	ruleRepo := &mockRuleRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.TargetingRule, error) {
			return nil, nil // Not found
		},
	}

	svc := NewRuleServiceWithTxBeginner(&mockTxBeginner{}, ruleRepo, &mockProfileRepository{}, &mockGrantRepository{})
	rule, err := svc.Get(context.Background(), "missing")

	require.Error(t, err)
	assert.Nil(t, rule)
	assert.True(t, errors.Is(err, ErrRuleNotFound))
}

func TestRuleService_Preview_CountsMatches(t *testing.T) {
	ruleRepo := &mockRuleRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.TargetingRule, error) {
			return zipRule(id, true), nil
		},
	}
	profileRepo := &mockProfileRepository{
		listAllFn: func(ctx context.Context) ([]model.UserProfile, error) {
			return []model.UserProfile{
				{UserID: "u1", ZipCode: "35223"},
				{UserID: "u2", ZipCode: "90210"},
				{UserID: "u3", ZipCode: "35213"},
			}, nil
		},
	}

	svc := NewRuleServiceWithTxBeginner(&mockTxBeginner{}, ruleRepo, profileRepo, &mockGrantRepository{})
	preview, err := svc.Preview(context.Background(), "rule-1")

	require.NoError(t, err)
	assert.Equal(t, "rule-1", preview.RuleID)
	assert.Equal(t, 2, preview.MatchingUsers)
}

func TestRuleService_Apply_GrantsMatchingUsers(t *testing.T) {
	tx := &mockTx{}
	pool := &mockTxBeginner{
		beginFn: func(ctx context.Context) (pgx.Tx, error) { return tx, nil },
	}
	ruleRepo := &mockRuleRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.TargetingRule, error) {
			return zipRule(id, true), nil
		},
	}
	profileRepo := &mockProfileRepository{
		listAllFn: func(ctx context.Context) ([]model.UserProfile, error) {
			return []model.UserProfile{
				{UserID: "u1", ZipCode: "35223"},
				{UserID: "u2", ZipCode: "90210"},
				{UserID: "u3", ZipCode: "35213"},
			}, nil
		},
	}

	var granted []*model.CouponGrant
	counterBumps := 0
	grantRepo := &mockGrantRepository{
		insertFn: func(ctx context.Context, _ database.TxQuerier, grant *model.CouponGrant) error {
			granted = append(granted, grant)
			return nil
		},
		incrementCounterFn: func(ctx context.Context, _ database.TxQuerier, couponID string) error {
			counterBumps++
			return nil
		},
	}

	svc := NewRuleServiceWithTxBeginner(pool, ruleRepo, profileRepo, grantRepo)
	resp, err := svc.Apply(context.Background(), "rule-1", &model.ApplyRuleRequest{CouponID: "coupon-1"})

	require.NoError(t, err)
	assert.Equal(t, 3, resp.Matched)
	assert.Equal(t, 2, resp.Granted)
	assert.Equal(t, 0, resp.Skipped)
	assert.Equal(t, 2, counterBumps)
	assert.True(t, tx.committed, "grants should commit in one transaction")

	require.Len(t, granted, 2)
	for _, g := range granted {
		assert.Equal(t, "coupon-1", g.CouponID)
		assert.Equal(t, model.GrantTargeted, g.GrantType)
		assert.Equal(t, "rule-1", g.TargetingRuleID)
		assert.NotEmpty(t, g.RedemptionCode)
		assert.False(t, g.Used)
	}
	assert.NotEqual(t, granted[0].RedemptionCode, granted[1].RedemptionCode)
}

func TestRuleService_Apply_SkipsExistingGrants(t *testing.T) {
	ruleRepo := &mockRuleRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.TargetingRule, error) {
			return zipRule(id, true), nil
		},
	}
	profileRepo := &mockProfileRepository{
		listAllFn: func(ctx context.Context) ([]model.UserProfile, error) {
			return []model.UserProfile{
				{UserID: "u1", ZipCode: "35223"},
				{UserID: "u3", ZipCode: "35213"},
			}, nil
		},
	}
	grantRepo := &mockGrantRepository{
		existsFn: func(ctx context.Context, userID, couponID string) (bool, error) {
			return userID == "u1", nil // u1 already holds the coupon
		},
	}

	svc := NewRuleServiceWithTxBeginner(&mockTxBeginner{}, ruleRepo, profileRepo, grantRepo)
	resp, err := svc.Apply(context.Background(), "rule-1", &model.ApplyRuleRequest{CouponID: "coupon-1"})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Granted)
	assert.Equal(t, 1, resp.Skipped)
}

func TestRuleService_Apply_RespectsGrantLimit(t *testing.T) {
	ruleRepo := &mockRuleRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.TargetingRule, error) {
			return zipRule(id, true), nil
		},
	}
	profileRepo := &mockProfileRepository{
		listAllFn: func(ctx context.Context) ([]model.UserProfile, error) {
			return []model.UserProfile{
				{UserID: "u1", ZipCode: "35223"},
				{UserID: "u2", ZipCode: "35223"},
				{UserID: "u3", ZipCode: "35213"},
			}, nil
		},
	}
	grantRepo := &mockGrantRepository{
		countByCouponFn: func(ctx context.Context, couponID string) (int, error) {
			return 3, nil // 3 already issued
		},
	}

	svc := NewRuleServiceWithTxBeginner(&mockTxBeginner{}, ruleRepo, profileRepo, grantRepo)
	resp, err := svc.Apply(context.Background(), "rule-1", &model.ApplyRuleRequest{CouponID: "coupon-1", GrantLimit: 4})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Granted, "only one slot remains under the limit")
	assert.Equal(t, 2, resp.Skipped)
}

func TestRuleService_Apply_LimitAlreadyExhausted(t *testing.T) {
	ruleRepo := &mockRuleRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.TargetingRule, error) {
			return zipRule(id, true), nil
		},
	}
	grantRepo := &mockGrantRepository{
		countByCouponFn: func(ctx context.Context, couponID string) (int, error) {
			return 5, nil
		},
	}

	svc := NewRuleServiceWithTxBeginner(&mockTxBeginner{}, ruleRepo, &mockProfileRepository{}, grantRepo)
	resp, err := svc.Apply(context.Background(), "rule-1", &model.ApplyRuleRequest{CouponID: "coupon-1", GrantLimit: 5})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, ErrGrantLimitReached))
}

func TestRuleService_Apply_InactiveRule(t *testing.T) {
	ruleRepo := &mockRuleRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.TargetingRule, error) {
			return zipRule(id, false), nil
		},
	}

	svc := NewRuleServiceWithTxBeginner(&mockTxBeginner{}, ruleRepo, &mockProfileRepository{}, &mockGrantRepository{})
	resp, err := svc.Apply(context.Background(), "rule-1", &model.ApplyRuleRequest{CouponID: "coupon-1"})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, ErrRuleInactive))
}

func TestRuleService_Apply_GrantRaceSkips(t *testing.T) {
	// A concurrent writer inserting the same grant between the Exists
	// check and the Insert surfaces as ErrGrantExists; the batch skips
	// that user instead of failing.
	ruleRepo := &mockRuleRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.TargetingRule, error) {
			return zipRule(id, true), nil
		},
	}
	profileRepo := &mockProfileRepository{
		listAllFn: func(ctx context.Context) ([]model.UserProfile, error) {
			return []model.UserProfile{
				{UserID: "u1", ZipCode: "35223"},
				{UserID: "u2", ZipCode: "35213"},
			}, nil
		},
	}
	grantRepo := &mockGrantRepository{
		insertFn: func(ctx context.Context, _ database.TxQuerier, grant *model.CouponGrant) error {
			if grant.UserID == "u1" {
				return ErrGrantExists
			}
			return nil
		},
	}

	svc := NewRuleServiceWithTxBeginner(&mockTxBeginner{}, ruleRepo, profileRepo, grantRepo)
	resp, err := svc.Apply(context.Background(), "rule-1", &model.ApplyRuleRequest{CouponID: "coupon-1"})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Granted)
	assert.Equal(t, 1, resp.Skipped)
}

func TestRuleService_Update_InvalidRule(t *testing.T) {
	ruleRepo := &mockRuleRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.TargetingRule, error) {
			return zipRule(id, true), nil
		},
	}

	svc := NewRuleServiceWithTxBeginner(&mockTxBeginner{}, ruleRepo, &mockProfileRepository{}, &mockGrantRepository{})
	req := &model.UpdateRuleRequest{Name: "renamed"} // no condition groups

	rule, err := svc.Update(context.Background(), "rule-1", req)

	require.Error(t, err)
	assert.Nil(t, rule)

	var validationErr *RuleValidationError
	assert.True(t, errors.As(err, &validationErr))
}
