package model

import "time"

// TargetingField identifies a user profile attribute a condition can test.
type TargetingField string

const (
	FieldZipCode      TargetingField = "zip_code"
	FieldSchoolID     TargetingField = "school_id"
	FieldGrade        TargetingField = "grade"
	FieldReferrerCode TargetingField = "referrer_code"
	FieldSignupDate   TargetingField = "signup_date"
	FieldLastActivity TargetingField = "last_activity"
)

// TargetingFields lists every recognized field, in display order.
var TargetingFields = []TargetingField{
	FieldZipCode,
	FieldSchoolID,
	FieldGrade,
	FieldReferrerCode,
	FieldSignupDate,
	FieldLastActivity,
}

// TargetingOperator identifies the comparison a condition performs.
type TargetingOperator string

const (
	OpEquals      TargetingOperator = "equals"
	OpIn          TargetingOperator = "in"
	OpNotIn       TargetingOperator = "not_in"
	OpContains    TargetingOperator = "contains"
	OpStartsWith  TargetingOperator = "starts_with"
	OpEndsWith    TargetingOperator = "ends_with"
	OpGreaterThan TargetingOperator = "greater_than"
	OpLessThan    TargetingOperator = "less_than"
	OpBetween     TargetingOperator = "between"
)

// TargetingOperators lists every recognized operator.
var TargetingOperators = []TargetingOperator{
	OpEquals,
	OpIn,
	OpNotIn,
	OpContains,
	OpStartsWith,
	OpEndsWith,
	OpGreaterThan,
	OpLessThan,
	OpBetween,
}

// TargetingCondition is one atomic field/operator/value test within a rule.
// Value comes from JSON and may be a string, a number, or an array of either,
// depending on the operator. The engine never mutates a condition.
type TargetingCondition struct {
	Field    TargetingField    `json:"field"`
	Operator TargetingOperator `json:"operator"`
	Value    any               `json:"value"`
}

// ConditionGroups buckets a rule's conditions into the three logical groups.
// A nil or empty group places no constraint on the user.
type ConditionGroups struct {
	All  []TargetingCondition `json:"all,omitempty"`
	Any  []TargetingCondition `json:"any,omitempty"`
	None []TargetingCondition `json:"none,omitempty"`
}

// Empty reports whether no group contains any condition.
func (g ConditionGroups) Empty() bool {
	return len(g.All) == 0 && len(g.Any) == 0 && len(g.None) == 0
}

// TargetingRule is a named, reusable boolean expression over profile fields
// used to decide coupon-grant eligibility. Rules are created by administrators
// and treated as read-only input by the matching engine.
type TargetingRule struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Conditions ConditionGroups `json:"conditions"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
