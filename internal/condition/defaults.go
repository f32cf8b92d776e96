package condition

import "github.com/solatis/parkwatch/internal/types"

// DefaultThreshold seeds thresholdValue for every new numeric rule.
const DefaultThreshold = 1.0

// NewDefault returns the template for an "add rule" action.
func NewDefault(objectID types.ObjectID) types.EventCondition {
	return types.EventCondition{
		ObjectID:            objectID,
		Level:               types.LevelNormal,
		ConditionType:       types.ConditionTypeSingle,
		Operator:            types.OperatorGE,
		ThresholdValue:      types.Float(DefaultThreshold),
		NotificationEnabled: true,
		Activate:            true,
	}
}

// FieldConfig is the type-specific shape a record takes for a field.
type FieldConfig struct {
	ConditionType  types.ConditionType
	Operator       types.Operator
	ThresholdValue *float64
	BooleanValue   *bool
}

// ConfigForField computes the shape for fieldKey. Boolean fields get
// booleanValue=true, everything else (including unknown keys) gets the
// default numeric threshold.
func ConfigForField(catalog Catalog, fieldKey string) FieldConfig {
	if catalog.IsBoolean(fieldKey) {
		return FieldConfig{
			ConditionType: types.ConditionTypeSingle,
			Operator:      types.OperatorGE,
			BooleanValue:  types.Bool(true),
		}
	}
	return FieldConfig{
		ConditionType:  types.ConditionTypeSingle,
		Operator:       types.OperatorGE,
		ThresholdValue: types.Float(DefaultThreshold),
	}
}

// Apply overwrites the type-specific fields of c. Range bounds are always cleared.
func (f FieldConfig) Apply(c *types.EventCondition) {
	c.ConditionType = f.ConditionType
	c.Operator = f.Operator
	c.ThresholdValue = nil
	c.BooleanValue = nil
	c.LeftValue = nil
	c.RightValue = nil
	if f.ThresholdValue != nil {
		c.ThresholdValue = types.Float(*f.ThresholdValue)
	}
	if f.BooleanValue != nil {
		c.BooleanValue = types.Bool(*f.BooleanValue)
	}
}

// SetFieldKey switches c to fieldKey and resets its type-specific sub-state.
// Prior threshold/range/boolean values are discarded unconditionally.
func SetFieldKey(c *types.EventCondition, catalog Catalog, fieldKey string) {
	c.FieldKey = fieldKey
	ConfigForField(catalog, fieldKey).Apply(c)
}

// SetConditionType switches between SINGLE and RANGE.
// Boolean records are always coerced back to SINGLE.
func SetConditionType(c *types.EventCondition, catalog Catalog, t types.ConditionType) {
	if catalog.IsBoolean(c.FieldKey) {
		c.ConditionType = types.ConditionTypeSingle
		return
	}

	c.ConditionType = t
	switch t {
	case types.ConditionTypeSingle:
		c.Operator = types.OperatorGE
		c.LeftValue = nil
		c.RightValue = nil
	case types.ConditionTypeRange:
		c.Operator = types.OperatorBetween
		c.ThresholdValue = nil
	}
}
