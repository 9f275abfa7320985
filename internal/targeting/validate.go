package targeting

import (
	"fmt"

	"github.com/brightraise/couponbook-platform/internal/model"
)

// ValidationResult reports the structural problems found in a rule.
// Errors are human-readable and intended to be returned to administrators.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

var (
	knownFields    = map[model.TargetingField]bool{}
	knownOperators = map[model.TargetingOperator]bool{}
)

func init() {
	for _, f := range model.TargetingFields {
		knownFields[f] = true
	}
	for _, op := range model.TargetingOperators {
		knownOperators[op] = true
	}
}

// ValidateRule checks a rule's structure: the rule must be named, must have
// at least one condition group, and every condition must use a recognized
// field, a recognized operator, and a non-nil value. Semantic shape (such
// as between requiring a 2-element array) is left to evaluation, which
// fails closed on it.
func ValidateRule(rule model.TargetingRule) ValidationResult {
	var errs []string

	if rule.Name == "" {
		errs = append(errs, "rule must have a name")
	}
	if rule.Conditions.Empty() {
		errs = append(errs, "rule must have at least one condition group (all, any, or none)")
	}

	groups := []struct {
		name  string
		conds []model.TargetingCondition
	}{
		{"all", rule.Conditions.All},
		{"any", rule.Conditions.Any},
		{"none", rule.Conditions.None},
	}
	for _, g := range groups {
		group := g.name
		for i, cond := range g.conds {
			if !knownFields[cond.Field] {
				errs = append(errs, fmt.Sprintf("%s[%d]: unknown field %q", group, i, cond.Field))
			}
			if !knownOperators[cond.Operator] {
				errs = append(errs, fmt.Sprintf("%s[%d]: unknown operator %q", group, i, cond.Operator))
			}
			if cond.Value == nil {
				errs = append(errs, fmt.Sprintf("%s[%d]: condition must have a value", group, i))
			}
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
