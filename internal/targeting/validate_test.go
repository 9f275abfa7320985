package targeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightraise/couponbook-platform/internal/model"
)

func TestValidateRule_Valid(t *testing.T) {
	rule := model.TargetingRule{
		Name: "zip targeting",
		Conditions: model.ConditionGroups{
			Any: []model.TargetingCondition{
				{Field: model.FieldZipCode, Operator: model.OpIn, Value: []any{"35223"}},
			},
		},
	}

	result := ValidateRule(rule)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateRule_MissingName(t *testing.T) {
	rule := model.TargetingRule{
		Conditions: model.ConditionGroups{
			All: []model.TargetingCondition{
				{Field: model.FieldGrade, Operator: model.OpEquals, Value: "9"},
			},
		},
	}

	result := ValidateRule(rule)
	require.False(t, result.Valid)
	assert.Contains(t, result.Errors, "rule must have a name")
}

func TestValidateRule_NoConditionGroups(t *testing.T) {
	rule := model.TargetingRule{Name: "empty"}

	result := ValidateRule(rule)
	require.False(t, result.Valid)
	assert.Contains(t, result.Errors, "rule must have at least one condition group (all, any, or none)")
}

func TestValidateRule_UnknownFieldAndOperator(t *testing.T) {
	rule := model.TargetingRule{
		Name: "bad rule",
		Conditions: model.ConditionGroups{
			All: []model.TargetingCondition{
				{Field: "shoe_size", Operator: model.OpEquals, Value: "9"},
				{Field: model.FieldGrade, Operator: "regex", Value: ".*"},
			},
		},
	}

	result := ValidateRule(rule)
	require.False(t, result.Valid)
	assert.Contains(t, result.Errors, `all[0]: unknown field "shoe_size"`)
	assert.Contains(t, result.Errors, `all[1]: unknown operator "regex"`)
}

func TestValidateRule_MissingValue(t *testing.T) {
	rule := model.TargetingRule{
		Name: "no value",
		Conditions: model.ConditionGroups{
			None: []model.TargetingCondition{
				{Field: model.FieldGrade, Operator: model.OpEquals, Value: nil},
			},
		},
	}

	result := ValidateRule(rule)
	require.False(t, result.Valid)
	assert.Contains(t, result.Errors, "none[0]: condition must have a value")
}

func TestValidateRule_StructuralOnly(t *testing.T) {
	// A between with the wrong shape is structurally fine; evaluation
	// fails closed on it instead.
	rule := model.TargetingRule{
		Name: "loose between",
		Conditions: model.ConditionGroups{
			All: []model.TargetingCondition{
				{Field: model.FieldGrade, Operator: model.OpBetween, Value: "9"},
			},
		},
	}

	result := ValidateRule(rule)
	assert.True(t, result.Valid)
}
