package condition

import (
	"fmt"

	"github.com/solatis/parkwatch/internal/types"
)

// DuplicateMessage formats the conflict reported on the fieldKey input.
func DuplicateMessage(fieldDescription string, level types.Level) string {
	return fmt.Sprintf("%s의 %s 레벨에 동일한 조건이 이미 존재합니다", fieldDescription, level.DisplayName())
}

// findDuplicate returns the message for the first sibling that encodes the
// same rule as c. Index self is skipped; pass -1 when siblings excludes c.
func findDuplicate(c types.EventCondition, catalog Catalog, siblings []types.EventCondition, self int) (string, bool) {
	for i, o := range siblings {
		if i == self {
			continue
		}
		if o.FieldKey != c.FieldKey || o.Level != c.Level {
			continue
		}
		if o.ConditionType != c.ConditionType {
			continue
		}
		if sameRule(c, o) {
			return DuplicateMessage(catalog.Describe(c.FieldKey), c.Level), true
		}
	}
	return "", false
}

// sameRule compares the value part of two records already known to share
// fieldKey, level and conditionType.
func sameRule(a, b types.EventCondition) bool {
	switch {
	case a.BooleanValue != nil && b.BooleanValue != nil:
		return *a.BooleanValue == *b.BooleanValue
	case a.ConditionType == types.ConditionTypeSingle:
		return a.Operator == b.Operator && floatEqual(a.ThresholdValue, b.ThresholdValue)
	case a.ConditionType == types.ConditionTypeRange:
		return floatEqual(a.LeftValue, b.LeftValue) && floatEqual(a.RightValue, b.RightValue)
	default:
		return false
	}
}
