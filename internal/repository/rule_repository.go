package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightraise/couponbook-platform/internal/model"
	"github.com/brightraise/couponbook-platform/internal/service"
)

// RulePoolInterface defines the database operations needed by RuleRepository.
// This allows for easier testing with mocks.
type RulePoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// RuleRepository provides data access for targeting rules using pgx.
// Condition groups are stored as a JSONB document.
type RuleRepository struct {
	pool RulePoolInterface
}

// NewRuleRepository creates a new RuleRepository with the given pool.
func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

// NewRuleRepositoryWithPool creates a new RuleRepository with a custom pool interface.
// This is primarily used for testing.
func NewRuleRepositoryWithPool(pool RulePoolInterface) *RuleRepository {
	return &RuleRepository{pool: pool}
}

// Insert inserts a new targeting rule.
func (r *RuleRepository) Insert(ctx context.Context, rule *model.TargetingRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("marshal rule conditions: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO targeting_rules (id, name, conditions, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rule.ID, rule.Name, conditions, rule.Active, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert targeting rule: %w", err)
	}
	return nil
}

// GetByID retrieves a targeting rule by id.
// Returns nil, nil if the rule is not found (service layer handles this).
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*model.TargetingRule, error) {
	query := `SELECT id, name, conditions, active, created_at, updated_at
	          FROM targeting_rules WHERE id = $1`

	rule, err := scanRule(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get targeting rule %s: %w", id, err)
	}
	return rule, nil
}

// List retrieves all targeting rules, newest first.
func (r *RuleRepository) List(ctx context.Context) ([]model.TargetingRule, error) {
	query := `SELECT id, name, conditions, active, created_at, updated_at
	          FROM targeting_rules ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list targeting rules: %w", err)
	}
	defer rows.Close()

	rules := []model.TargetingRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan targeting rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate targeting rules: %w", err)
	}
	return rules, nil
}

// Update replaces a rule's name, conditions, and active flag.
// Returns service.ErrRuleNotFound if the rule doesn't exist.
func (r *RuleRepository) Update(ctx context.Context, rule *model.TargetingRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("marshal rule conditions: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE targeting_rules SET name = $2, conditions = $3, active = $4, updated_at = $5
		 WHERE id = $1`,
		rule.ID, rule.Name, conditions, rule.Active, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update targeting rule %s: %w", rule.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrRuleNotFound
	}
	return nil
}

// SetActive toggles a rule's active flag.
// Returns service.ErrRuleNotFound if the rule doesn't exist.
func (r *RuleRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE targeting_rules SET active = $2, updated_at = now() WHERE id = $1`,
		id, active)
	if err != nil {
		return fmt.Errorf("set rule %s active=%t: %w", id, active, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrRuleNotFound
	}
	return nil
}

// scanRule scans one rule row, decoding the JSONB conditions document.
func scanRule(row pgx.Row) (*model.TargetingRule, error) {
	var rule model.TargetingRule
	var conditions []byte
	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&conditions,
		&rule.Active,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
			return nil, fmt.Errorf("unmarshal rule conditions: %w", err)
		}
	}
	return &rule, nil
}
