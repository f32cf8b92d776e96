package types

import "errors"

// Sentinel errors for ParkWatch operations.
//
// Validation problems are never reported through these; they are returned
// as data by the condition package so callers can render them inline.
var (
	// ErrIndexOutOfRange indicates an edit addressed a row that does not exist.
	ErrIndexOutOfRange = errors.New("condition index out of range")

	// ErrUnknownField indicates an edit addressed a field the record does not have.
	ErrUnknownField = errors.New("unknown condition field")

	// ErrInvalidFieldValue indicates an edit value of the wrong shape for its field.
	ErrInvalidFieldValue = errors.New("invalid value for condition field")

	// ErrConditionNotFound indicates no persisted condition has the given id.
	ErrConditionNotFound = errors.New("condition not found")

	// ErrObjectMismatch indicates a record belongs to a different device type.
	ErrObjectMismatch = errors.New("condition belongs to a different device type")

	// ErrTooManyConditions indicates a bulk replace exceeds MaxConditionsPerObject.
	ErrTooManyConditions = errors.New("too many conditions for device type")

	// ErrTooManyReadings indicates an evaluation request exceeds MaxReadingsPerRequest.
	ErrTooManyReadings = errors.New("too many readings in request")

	// ErrCoercionFailed indicates a reading could not be converted to its field type.
	ErrCoercionFailed = errors.New("type coercion failed")
)
