// Package types provides domain models shared across ParkWatch components.
//
// Zero-dependency design: types.go, conditions.go and errors.go use only the
// standard library so the condition model can be embedded in thin clients.
// ID utilities in ids.go import uuid but are isolated for selective inclusion.
package types

// ObjectID identifies a device type. Every condition and profile belongs to
// exactly one device type and the Edit Session is scoped to one ObjectID.
type ObjectID = string

// ConditionID represents a UUIDv7 condition identifier assigned by the store.
// Empty for records created in an edit session that were never saved.
type ConditionID string

// FieldTypeBoolean is the only fieldType tag with special meaning.
// Every other tag (Integer, Float, Double, ...) is treated as numeric.
const FieldTypeBoolean = "Boolean"

// DeviceProfile is one declared telemetry field of a device type.
// Owned by the device-type registry; never written by the condition core.
type DeviceProfile struct {
	FieldKey    string `json:"fieldKey" yaml:"fieldKey" db:"field_key"`
	FieldType   string `json:"fieldType" yaml:"fieldType" db:"field_type"`
	Description string `json:"description" yaml:"description" db:"description"`
	FieldUnit   string `json:"fieldUnit,omitempty" yaml:"fieldUnit,omitempty" db:"field_unit"`
}

// IsBoolean reports whether the field carries a binary state.
func (p DeviceProfile) IsBoolean() bool {
	return p.FieldType == FieldTypeBoolean
}

// Resource limits enforced at API boundaries.
const (
	// MaxConditionsPerObject bounds a single bulk replace.
	// Validation is O(n^2) over the set because of duplicate detection.
	MaxConditionsPerObject = 500

	// MaxGuideMessageLength bounds the operator guide text.
	MaxGuideMessageLength = 1000

	// MaxReadingsPerRequest bounds one sensor evaluation request.
	MaxReadingsPerRequest = 1000
)
