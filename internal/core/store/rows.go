package store

import (
	"database/sql"
	"time"

	"github.com/solatis/parkwatch/internal/types"
)

// conditionRow mirrors event_conditions. Nullable columns scan through sql.Null*.
type conditionRow struct {
	ID                  string          `db:"id"`
	ObjectID            string          `db:"object_id"`
	FieldKey            string          `db:"field_key"`
	Level               string          `db:"level"`
	ConditionType       string          `db:"condition_type"`
	Operator            string          `db:"operator"`
	ThresholdValue      sql.NullFloat64 `db:"threshold_value"`
	LeftValue           sql.NullFloat64 `db:"left_value"`
	RightValue          sql.NullFloat64 `db:"right_value"`
	BooleanValue        sql.NullBool    `db:"boolean_value"`
	NotificationEnabled bool            `db:"notification_enabled"`
	Activate            bool            `db:"activate"`
	GuideMessage        sql.NullString  `db:"guide_message"`
	CreatedAt           time.Time       `db:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at"`
}

func (r conditionRow) toCondition() types.EventCondition {
	return types.EventCondition{
		ID:                  types.ConditionID(r.ID),
		ObjectID:            r.ObjectID,
		FieldKey:            r.FieldKey,
		Level:               types.Level(r.Level),
		ConditionType:       types.ConditionType(r.ConditionType),
		Operator:            types.Operator(r.Operator),
		ThresholdValue:      nullFloat(r.ThresholdValue),
		LeftValue:           nullFloat(r.LeftValue),
		RightValue:          nullFloat(r.RightValue),
		BooleanValue:        nullBool(r.BooleanValue),
		NotificationEnabled: r.NotificationEnabled,
		Activate:            r.Activate,
		GuideMessage:        r.GuideMessage.String,
	}
}

// insertArgs returns the positional arguments of insert-condition.
func insertArgs(c types.EventCondition, createdAt, updatedAt time.Time) []interface{} {
	return []interface{}{
		string(c.ID),
		c.ObjectID,
		c.FieldKey,
		string(c.Level),
		string(c.ConditionType),
		string(c.Operator),
		c.ThresholdValue,
		c.LeftValue,
		c.RightValue,
		c.BooleanValue,
		c.NotificationEnabled,
		c.Activate,
		sql.NullString{String: c.GuideMessage, Valid: c.GuideMessage != ""},
		createdAt,
		updatedAt,
	}
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return types.Float(n.Float64)
}

func nullBool(n sql.NullBool) *bool {
	if !n.Valid {
		return nil
	}
	return types.Bool(n.Bool)
}

// createdRow carries over creation time across a bulk replace.
type createdRow struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}
