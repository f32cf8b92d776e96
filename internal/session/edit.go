package session

import (
	"fmt"

	"github.com/solatis/parkwatch/internal/condition"
	"github.com/solatis/parkwatch/internal/types"
)

// Edit sets field on the record at index. Field names are the JSON names
// (condition.FieldFieldKey and friends). Numeric fields accept float, int,
// numeric strings or nil to clear.
//
// Changing fieldKey or conditionType applies the derived defaults. Changing
// fieldKey or level of a persisted record re-sorts the working copy; new
// records never move.
func (s *Session) Edit(index int, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.editing) {
		return types.ErrIndexOutOfRange
	}

	c := s.editing[index].cond.Clone()
	if err := applyEdit(&c, s.catalog, field, value); err != nil {
		return err
	}
	s.editing[index].cond = c

	if !c.IsNew() && (field == condition.FieldFieldKey || field == condition.FieldLevel) {
		s.editing = sortEntries(s.editing)
	}
	s.recompute()
	return nil
}

func applyEdit(c *types.EventCondition, catalog condition.Catalog, field string, value any) error {
	switch field {
	case condition.FieldFieldKey:
		v, err := asString(field, value)
		if err != nil {
			return err
		}
		condition.SetFieldKey(c, catalog, v)
	case condition.FieldLevel:
		v, err := asString(field, value)
		if err != nil {
			return err
		}
		c.Level = types.Level(v)
	case condition.FieldConditionType:
		v, err := asString(field, value)
		if err != nil {
			return err
		}
		condition.SetConditionType(c, catalog, types.ConditionType(v))
	case condition.FieldOperator:
		v, err := asString(field, value)
		if err != nil {
			return err
		}
		c.Operator = types.Operator(v)
	case condition.FieldThresholdValue:
		return setNumber(&c.ThresholdValue, field, value)
	case condition.FieldLeftValue:
		return setNumber(&c.LeftValue, field, value)
	case condition.FieldRightValue:
		return setNumber(&c.RightValue, field, value)
	case condition.FieldBooleanValue:
		if value == nil {
			c.BooleanValue = nil
			return nil
		}
		b, ok := value.(bool)
		if !ok {
			return invalidValue(field, value)
		}
		c.BooleanValue = types.Bool(b)
	case condition.FieldNotificationEnabled:
		b, ok := value.(bool)
		if !ok {
			return invalidValue(field, value)
		}
		c.NotificationEnabled = b
	case condition.FieldActivate:
		b, ok := value.(bool)
		if !ok {
			return invalidValue(field, value)
		}
		c.Activate = b
	case condition.FieldGuideMessage:
		if value == nil {
			c.GuideMessage = ""
			return nil
		}
		v, err := asString(field, value)
		if err != nil {
			return err
		}
		c.GuideMessage = v
	default:
		return fmt.Errorf("%w: %s", types.ErrUnknownField, field)
	}
	return nil
}

// asString accepts plain strings and the named string types of the domain.
func asString(field string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case types.Level:
		return string(v), nil
	case types.ConditionType:
		return string(v), nil
	case types.Operator:
		return string(v), nil
	default:
		return "", invalidValue(field, value)
	}
}

// setNumber clears dst on nil or an empty string, otherwise coerces value.
func setNumber(dst **float64, field string, value any) error {
	if value == nil {
		*dst = nil
		return nil
	}
	if s, ok := value.(string); ok && s == "" {
		*dst = nil
		return nil
	}
	f, err := condition.CoerceNumber(value)
	if err != nil {
		return invalidValue(field, value)
	}
	*dst = types.Float(f)
	return nil
}

func invalidValue(field string, value any) error {
	return fmt.Errorf("%w: %s=%v (%T)", types.ErrInvalidFieldValue, field, value, value)
}
