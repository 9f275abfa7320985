// Package targeting implements the rule-evaluation engine that decides
// coupon-grant eligibility. All functions are pure: they never touch I/O,
// never mutate their inputs, and never panic on malformed data. Anything
// ambiguous or unparseable evaluates to no-match (fail closed), so bad data
// can never grant access it shouldn't.
package targeting

import (
	"strconv"
	"strings"
	"time"

	"github.com/brightraise/couponbook-platform/internal/model"
)

// MatchesRule reports whether a user profile satisfies a targeting rule.
// The rule's three condition groups are evaluated independently:
//
//   - all:  every condition must match
//   - any:  at least one condition must match
//   - none: every condition must fail to match
//
// An absent or empty group is vacuously true, and the final result is the
// AND of the three. A rule with no conditions at all therefore matches
// every user; callers that want default-deny must validate rules up front.
func MatchesRule(profile model.UserProfile, rule model.TargetingRule) bool {
	for _, cond := range rule.Conditions.All {
		if !MatchesCondition(profile, cond) {
			return false
		}
	}

	if len(rule.Conditions.Any) > 0 {
		matched := false
		for _, cond := range rule.Conditions.Any {
			if MatchesCondition(profile, cond) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, cond := range rule.Conditions.None {
		if MatchesCondition(profile, cond) {
			return false
		}
	}

	return true
}

// MatchesCondition reports whether a single condition holds for a profile.
// A condition on an absent field never matches, regardless of operator.
func MatchesCondition(profile model.UserProfile, cond model.TargetingCondition) bool {
	fieldVal, ok := profile.FieldValue(cond.Field)
	if !ok {
		return false
	}

	switch cond.Operator {
	case model.OpEquals:
		return matchEquals(fieldVal, cond.Value)
	case model.OpIn:
		return matchIn(fieldVal, cond.Value)
	case model.OpNotIn:
		list, ok := toStringSlice(cond.Value)
		if !ok {
			return false
		}
		for _, item := range list {
			if item == fieldVal {
				return false
			}
		}
		return true
	case model.OpContains:
		s, ok := cond.Value.(string)
		return ok && strings.Contains(fieldVal, s)
	case model.OpStartsWith:
		s, ok := cond.Value.(string)
		return ok && strings.HasPrefix(fieldVal, s)
	case model.OpEndsWith:
		s, ok := cond.Value.(string)
		return ok && strings.HasSuffix(fieldVal, s)
	case model.OpGreaterThan:
		cmp, ok := compare(fieldVal, cond.Value)
		return ok && cmp > 0
	case model.OpLessThan:
		cmp, ok := compare(fieldVal, cond.Value)
		return ok && cmp < 0
	case model.OpBetween:
		return matchBetween(fieldVal, cond.Value)
	}

	// Unrecognized operator: fail closed.
	return false
}

// MatchingUsers filters profiles down to those the rule matches,
// preserving input order. An empty input yields an empty result.
func MatchingUsers(rule model.TargetingRule, profiles []model.UserProfile) []model.UserProfile {
	matched := make([]model.UserProfile, 0, len(profiles))
	for _, p := range profiles {
		if MatchesRule(p, rule) {
			matched = append(matched, p)
		}
	}
	return matched
}

// MatchingUserCount returns how many of the given profiles the rule matches.
func MatchingUserCount(rule model.TargetingRule, profiles []model.UserProfile) int {
	count := 0
	for _, p := range profiles {
		if MatchesRule(p, rule) {
			count++
		}
	}
	return count
}

func matchEquals(fieldVal string, condVal any) bool {
	switch v := condVal.(type) {
	case string:
		return fieldVal == v
	case float64:
		f, err := strconv.ParseFloat(fieldVal, 64)
		return err == nil && f == v
	case int:
		f, err := strconv.ParseFloat(fieldVal, 64)
		return err == nil && f == float64(v)
	case int64:
		f, err := strconv.ParseFloat(fieldVal, 64)
		return err == nil && f == float64(v)
	}
	return false
}

func matchIn(fieldVal string, condVal any) bool {
	list, ok := toStringSlice(condVal)
	if !ok {
		return false
	}
	for _, item := range list {
		if item == fieldVal {
			return true
		}
	}
	return false
}

func matchBetween(fieldVal string, condVal any) bool {
	bounds, ok := toAnySlice(condVal)
	if !ok || len(bounds) != 2 {
		return false
	}
	lowCmp, ok := compare(fieldVal, bounds[0])
	if !ok {
		return false
	}
	highCmp, ok := compare(fieldVal, bounds[1])
	if !ok {
		return false
	}
	// Bounds are inclusive on both ends.
	return lowCmp >= 0 && highCmp <= 0
}

// compare orders the profile value against a condition value, returning
// -1/0/+1 and whether the comparison is meaningful. If the profile value
// looks like a date (contains '-' or '/') and both sides parse as dates,
// they compare as dates; otherwise both sides must parse as numbers.
func compare(fieldVal string, condVal any) (int, bool) {
	if strings.ContainsAny(fieldVal, "-/") {
		ft, ok1 := parseDate(fieldVal)
		ct, ok2 := parseDateValue(condVal)
		if ok1 && ok2 {
			switch {
			case ft.Before(ct):
				return -1, true
			case ft.After(ct):
				return 1, true
			}
			return 0, true
		}
	}

	f, err := strconv.ParseFloat(fieldVal, 64)
	if err != nil {
		return 0, false
	}
	c, ok := toFloat(condVal)
	if !ok {
		return 0, false
	}
	switch {
	case f < c:
		return -1, true
	case f > c:
		return 1, true
	}
	return 0, true
}

// dateLayouts are tried in order when parsing date-like strings.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDateValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		return parseDate(t)
	case time.Time:
		return t, true
	}
	return time.Time{}, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// toAnySlice accepts the slice shapes JSON decoding and literal Go
// construction produce for array-valued conditions.
func toAnySlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, true
	}
	return nil, false
}

func toStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}
