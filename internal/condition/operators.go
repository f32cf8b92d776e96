// internal/condition/operators.go
package condition

import "github.com/solatis/parkwatch/internal/types"

/*
 * Operator matching.
 *
 * Values must already be coerced via Coerce(). A record that is structurally
 * incomplete (missing threshold, missing bound) never matches; validation is
 * responsible for rejecting such records before they are persisted.
 *
 *   - SINGLE GE:     v >= threshold
 *   - SINGLE LE:     v <= threshold
 *   - RANGE BETWEEN: left <= v <= right, bounds inclusive
 *   - boolean:       v == booleanValue
 */

// Matches reports whether the coerced reading satisfies c.
func Matches(c types.EventCondition, value any) bool {
	if c.BooleanValue != nil {
		b, ok := value.(bool)
		return ok && b == *c.BooleanValue
	}

	v, ok := value.(float64)
	if !ok {
		return false
	}

	switch c.ConditionType {
	case types.ConditionTypeSingle:
		if c.ThresholdValue == nil {
			return false
		}
		switch c.Operator {
		case types.OperatorGE:
			return v >= *c.ThresholdValue
		case types.OperatorLE:
			return v <= *c.ThresholdValue
		default:
			return false
		}
	case types.ConditionTypeRange:
		if c.LeftValue == nil || c.RightValue == nil {
			return false
		}
		return *c.LeftValue <= v && v <= *c.RightValue
	default:
		return false
	}
}
