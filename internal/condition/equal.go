package condition

import "github.com/solatis/parkwatch/internal/types"

// SameContent reports whether a and b are equal on every user-editable field.
// ID and ObjectID are identity, not content, and are ignored.
func SameContent(a, b types.EventCondition) bool {
	return a.FieldKey == b.FieldKey &&
		a.Level == b.Level &&
		a.ConditionType == b.ConditionType &&
		a.Operator == b.Operator &&
		floatEqual(a.ThresholdValue, b.ThresholdValue) &&
		floatEqual(a.LeftValue, b.LeftValue) &&
		floatEqual(a.RightValue, b.RightValue) &&
		a.NotificationEnabled == b.NotificationEnabled &&
		a.Activate == b.Activate &&
		boolEqual(a.BooleanValue, b.BooleanValue) &&
		a.GuideMessage == b.GuideMessage
}

// floatEqual treats two unset values as equal; 0 and unset differ.
func floatEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func boolEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
