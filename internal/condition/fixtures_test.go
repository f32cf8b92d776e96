package condition

import "github.com/solatis/parkwatch/internal/types"

const testObject = "ws-100"

func testCatalog() Catalog {
	return Catalog{
		{FieldKey: "temperature", FieldType: "Number", Description: "온도", FieldUnit: "°C"},
		{FieldKey: "humidity", FieldType: "Number", Description: "습도", FieldUnit: "%"},
		{FieldKey: "door", FieldType: types.FieldTypeBoolean, Description: "문 열림"},
		{FieldKey: "battery", FieldType: "Number"},
	}
}

func single(key string, level types.Level, op types.Operator, threshold float64) types.EventCondition {
	return types.EventCondition{
		ObjectID:            testObject,
		FieldKey:            key,
		Level:               level,
		ConditionType:       types.ConditionTypeSingle,
		Operator:            op,
		ThresholdValue:      types.Float(threshold),
		NotificationEnabled: true,
		Activate:            true,
	}
}

func between(key string, level types.Level, left, right float64) types.EventCondition {
	return types.EventCondition{
		ObjectID:            testObject,
		FieldKey:            key,
		Level:               level,
		ConditionType:       types.ConditionTypeRange,
		Operator:            types.OperatorBetween,
		LeftValue:           types.Float(left),
		RightValue:          types.Float(right),
		NotificationEnabled: true,
		Activate:            true,
	}
}

func boolean(key string, level types.Level, v bool) types.EventCondition {
	return types.EventCondition{
		ObjectID:            testObject,
		FieldKey:            key,
		Level:               level,
		ConditionType:       types.ConditionTypeSingle,
		Operator:            types.OperatorGE,
		BooleanValue:        types.Bool(v),
		NotificationEnabled: true,
		Activate:            true,
	}
}

func withID(c types.EventCondition, id string) types.EventCondition {
	c.ID = types.ConditionID(id)
	return c
}
