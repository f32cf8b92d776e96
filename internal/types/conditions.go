// internal/types/conditions.go
package types

/*
 * Domain types for event conditions.
 *
 * An EventCondition is one alarm rule bound to a device field and a severity
 * level. Optional values are pointers so "unset" stays distinct from zero:
 * a threshold of 0 is a real threshold, nil means the input is empty.
 *
 * Key types:
 *   - Level: severity produced when the rule matches
 *   - ConditionType: SINGLE (threshold + operator) or RANGE (closed interval)
 *   - Operator: GE, LE for SINGLE; BETWEEN for RANGE
 *   - EventCondition: the record edited by the session and persisted by the store
 *
 * New vs persisted: ID presence is the only discriminator. IsNew() wraps the
 * check so callers never compare against the empty string directly.
 */

// Level is an alarm severity.
type Level string

const (
	LevelNormal       Level = "NORMAL"
	LevelWarning      Level = "WARNING"
	LevelCaution      Level = "CAUTION"
	LevelDanger       Level = "DANGER"
	LevelDisconnected Level = "DISCONNECTED"
)

// Levels lists every level in declaration order.
var Levels = []Level{LevelNormal, LevelWarning, LevelCaution, LevelDanger, LevelDisconnected}

// Valid reports whether l is one of the five known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelNormal, LevelWarning, LevelCaution, LevelDanger, LevelDisconnected:
		return true
	default:
		return false
	}
}

// DisplayName returns the operator-facing label.
func (l Level) DisplayName() string {
	switch l {
	case LevelNormal:
		return "정상"
	case LevelCaution:
		return "주의"
	case LevelWarning:
		return "경고"
	case LevelDanger:
		return "위험"
	case LevelDisconnected:
		return "연결 끊김"
	default:
		return string(l)
	}
}

// ConditionType selects between a single threshold and a closed interval.
type ConditionType string

const (
	ConditionTypeSingle ConditionType = "SINGLE"
	ConditionTypeRange  ConditionType = "RANGE"
)

// Valid reports whether t is SINGLE or RANGE.
func (t ConditionType) Valid() bool {
	return t == ConditionTypeSingle || t == ConditionTypeRange
}

// Operator is the comparison applied to a reading.
type Operator string

const (
	OperatorGE      Operator = "GE"
	OperatorLE      Operator = "LE"
	OperatorBetween Operator = "BETWEEN"
)

// Valid reports whether o is GE, LE or BETWEEN.
func (o Operator) Valid() bool {
	switch o {
	case OperatorGE, OperatorLE, OperatorBetween:
		return true
	default:
		return false
	}
}

// EventCondition is one threshold, range or boolean alarm rule.
type EventCondition struct {
	ID                  ConditionID   `json:"id,omitempty" yaml:"id,omitempty"`
	ObjectID            ObjectID      `json:"objectId" yaml:"objectId"`
	FieldKey            string        `json:"fieldKey" yaml:"fieldKey"`
	Level               Level         `json:"level" yaml:"level"`
	ConditionType       ConditionType `json:"conditionType" yaml:"conditionType"`
	Operator            Operator      `json:"operator" yaml:"operator"`
	ThresholdValue      *float64      `json:"thresholdValue,omitempty" yaml:"thresholdValue,omitempty"`
	LeftValue           *float64      `json:"leftValue,omitempty" yaml:"leftValue,omitempty"`
	RightValue          *float64      `json:"rightValue,omitempty" yaml:"rightValue,omitempty"`
	BooleanValue        *bool         `json:"booleanValue,omitempty" yaml:"booleanValue,omitempty"`
	NotificationEnabled bool          `json:"notificationEnabled" yaml:"notificationEnabled"`
	Activate            bool          `json:"activate" yaml:"activate"`
	GuideMessage        string        `json:"guideMessage,omitempty" yaml:"guideMessage,omitempty"`
}

// IsNew reports whether the record was never persisted.
func (c EventCondition) IsNew() bool {
	return c.ID == ""
}

// Clone returns a deep copy; pointer fields are reallocated.
func (c EventCondition) Clone() EventCondition {
	out := c
	out.ThresholdValue = cloneFloat(c.ThresholdValue)
	out.LeftValue = cloneFloat(c.LeftValue)
	out.RightValue = cloneFloat(c.RightValue)
	if c.BooleanValue != nil {
		b := *c.BooleanValue
		out.BooleanValue = &b
	}
	return out
}

// CloneConditions deep-copies a slice. Returns an empty, non-nil slice for nil input.
func CloneConditions(in []EventCondition) []EventCondition {
	out := make([]EventCondition, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}
