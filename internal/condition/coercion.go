// internal/condition/coercion.go
package condition

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/solatis/parkwatch/internal/types"
)

/*
 * Type coercion for readings and numeric edits.
 *
 * Two field natures, following the catalog:
 *   - numeric: strict, coerce numeric strings to float64, reject booleans
 *   - boolean: strict, bool only, reject strings and numbers
 *
 * Null and coercion failure are different outcomes. Null means the sensor
 * sent nothing and maps to DISCONNECTED; a failed coercion means it sent
 * garbage and the field is reported as such, never silently matched.
 */

// CoercionResult holds the coerced value or indicates null.
type CoercionResult struct {
	Value  any  // float64 or bool, valid only if !IsNull
	IsNull bool // true if input was nil
}

// Coerce converts value to the nature of fieldKey in catalog.
// Returns ErrCoercionFailed for impossible coercions.
func Coerce(value any, catalog Catalog, fieldKey string) (CoercionResult, error) {
	if value == nil {
		return CoercionResult{IsNull: true}, nil
	}
	if catalog.IsBoolean(fieldKey) {
		b, err := CoerceBoolean(value)
		if err != nil {
			return CoercionResult{}, err
		}
		return CoercionResult{Value: b}, nil
	}
	f, err := CoerceNumber(value)
	if err != nil {
		return CoercionResult{}, err
	}
	return CoercionResult{Value: f}, nil
}

// CoerceNumber converts value to float64.
// Accepts float64, float32, int, int32, int64, json.Number and numeric strings.
// Whitespace-only strings and booleans fail.
func CoerceNumber(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, types.ErrCoercionFailed
		}
		return f, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, types.ErrCoercionFailed
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, types.ErrCoercionFailed
		}
		return f, nil
	default:
		return 0, types.ErrCoercionFailed
	}
}

// CoerceBoolean accepts bool only; "true" and 1 are rejected.
func CoerceBoolean(value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, types.ErrCoercionFailed
	}
	return b, nil
}
