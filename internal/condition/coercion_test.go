package condition

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/solatis/parkwatch/internal/types"
)

func TestCoerce(t *testing.T) {
	catalog := testCatalog()

	tests := []struct {
		name      string
		value     any
		fieldKey  string
		wantValue any
		wantNull  bool
		wantErr   error
	}{
		// numeric fields
		{name: "numeric: string to float64", value: "25", fieldKey: "temperature", wantValue: 25.0},
		{name: "numeric: float64 passthrough", value: 42.5, fieldKey: "temperature", wantValue: 42.5},
		{name: "numeric: int to float64", value: 100, fieldKey: "temperature", wantValue: 100.0},
		{name: "numeric: int64 to float64", value: int64(999), fieldKey: "temperature", wantValue: 999.0},
		{name: "numeric: json.Number", value: json.Number("12.5"), fieldKey: "humidity", wantValue: 12.5},
		{name: "numeric: string with whitespace", value: "  42  ", fieldKey: "temperature", wantValue: 42.0},
		{name: "numeric: negative string", value: "-100", fieldKey: "temperature", wantValue: -100.0},
		{name: "numeric: unknown field treated as numeric", value: "7", fieldKey: "pressure", wantValue: 7.0},
		{name: "numeric: non-numeric string fails", value: "abc", fieldKey: "temperature", wantErr: types.ErrCoercionFailed},
		{name: "numeric: whitespace-only string fails", value: "   ", fieldKey: "temperature", wantErr: types.ErrCoercionFailed},
		{name: "numeric: boolean fails", value: true, fieldKey: "temperature", wantErr: types.ErrCoercionFailed},
		{name: "numeric: nil returns null", value: nil, fieldKey: "temperature", wantNull: true},

		// boolean fields
		{name: "boolean: true passthrough", value: true, fieldKey: "door", wantValue: true},
		{name: "boolean: false passthrough", value: false, fieldKey: "door", wantValue: false},
		{name: "boolean: string fails", value: "true", fieldKey: "door", wantErr: types.ErrCoercionFailed},
		{name: "boolean: int fails", value: 1, fieldKey: "door", wantErr: types.ErrCoercionFailed},
		{name: "boolean: nil returns null", value: nil, fieldKey: "door", wantNull: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value, catalog, tt.fieldKey)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Coerce() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if got.IsNull != tt.wantNull {
				t.Errorf("IsNull = %v, want %v", got.IsNull, tt.wantNull)
			}
			if !tt.wantNull && got.Value != tt.wantValue {
				t.Errorf("Value = %v (%T), want %v (%T)", got.Value, got.Value, tt.wantValue, tt.wantValue)
			}
		})
	}
}
