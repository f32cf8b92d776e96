// internal/condition/evaluate.go
package condition

import (
	"errors"
	"sort"

	"github.com/solatis/parkwatch/internal/types"
)

/*
 * Reading evaluation.
 *
 * Given the persisted set of one device type and a map of latest readings,
 * reports one level per field that has at least one active condition.
 *
 * Per field:
 *   1. missing or null reading: DISCONNECTED
 *   2. coerce to the field nature, failure marks CoercionFailed
 *   3. match every active condition, keep the most severe
 *   4. no match: NORMAL
 *
 * A fieldKey with only inactive conditions produces no result. Readings for
 * fields without conditions are ignored.
 */

// FieldResult is the evaluated state of one field.
type FieldResult struct {
	FieldKey            string            `json:"fieldKey"`
	Level               types.Level       `json:"level,omitempty"`
	ConditionID         types.ConditionID `json:"conditionId,omitempty"`
	NotificationEnabled bool              `json:"notificationEnabled"`
	GuideMessage        string            `json:"guideMessage,omitempty"`
	Value               any               `json:"value,omitempty"`
	CoercionFailed      bool              `json:"coercionFailed,omitempty"`
}

// Evaluate maps readings onto levels. Results are ordered by fieldKey.
func Evaluate(conditions []types.EventCondition, catalog Catalog, readings map[string]any) []FieldResult {
	byField := make(map[string][]types.EventCondition)
	for _, c := range conditions {
		if !c.Activate {
			continue
		}
		byField[c.FieldKey] = append(byField[c.FieldKey], c)
	}

	keys := make([]string, 0, len(byField))
	for k := range byField {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]FieldResult, 0, len(keys))
	for _, key := range keys {
		out = append(out, evaluateField(key, byField[key], catalog, readings))
	}
	return out
}

func evaluateField(key string, conds []types.EventCondition, catalog Catalog, readings map[string]any) FieldResult {
	result := FieldResult{FieldKey: key}

	raw, present := readings[key]
	coerced, err := Coerce(raw, catalog, key)
	if err != nil {
		if errors.Is(err, types.ErrCoercionFailed) {
			result.CoercionFailed = true
		}
		return result
	}
	if !present || coerced.IsNull {
		result.Level = types.LevelDisconnected
		return result
	}
	result.Value = coerced.Value

	var best *types.EventCondition
	for i := range conds {
		if !Matches(conds[i], coerced.Value) {
			continue
		}
		if best == nil || Severity(conds[i].Level) < Severity(best.Level) {
			best = &conds[i]
		}
	}

	if best == nil {
		result.Level = types.LevelNormal
		return result
	}

	result.Level = best.Level
	result.ConditionID = best.ID
	result.NotificationEnabled = best.NotificationEnabled
	result.GuideMessage = best.GuideMessage
	return result
}
