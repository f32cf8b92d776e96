// internal/condition/validate.go
package condition

import (
	"math"

	"github.com/solatis/parkwatch/internal/types"
)

/*
 * Structural validation of event conditions.
 *
 * Dispatches on the field's nature and the record's conditionType to one of
 * three shapes, after a common pass over identity and enum fields:
 *   - boolean: booleanValue required, numeric values absent
 *   - single:  thresholdValue required with GE/LE, range and boolean absent
 *   - range:   leftValue < rightValue with BETWEEN, threshold and boolean absent
 *
 * Results are data, never errors. Every message goes to the flat Errors list;
 * the first message per field is also kept in FieldErrors so a form can
 * highlight the offending input.
 *
 * Unknown field keys fall through to the numeric shapes, matching the
 * defaults applied by ConfigForField.
 */

// Field names as they appear in FieldErrors and in session edits.
const (
	FieldObjectID            = "objectId"
	FieldFieldKey            = "fieldKey"
	FieldLevel               = "level"
	FieldConditionType       = "conditionType"
	FieldOperator            = "operator"
	FieldThresholdValue      = "thresholdValue"
	FieldLeftValue           = "leftValue"
	FieldRightValue          = "rightValue"
	FieldBooleanValue        = "booleanValue"
	FieldNotificationEnabled = "notificationEnabled"
	FieldActivate            = "activate"
	FieldGuideMessage        = "guideMessage"
)

// Operator-facing validation messages.
const (
	MsgObjectIDRequired     = "디바이스 타입 ID가 필요합니다"
	MsgFieldKeyRequired     = "필드를 선택해주세요"
	MsgFieldKeyUnknown      = "존재하지 않는 필드입니다"
	MsgLevelInvalid         = "유효한 레벨을 선택해주세요"
	MsgLevelBoolean         = "Boolean 필드는 정상 또는 위험 레벨만 사용할 수 있습니다"
	MsgLevelNumeric         = "숫자 필드에는 연결 끊김 레벨을 사용할 수 없습니다"
	MsgConditionTypeInvalid = "유효한 조건 유형을 선택해주세요"
	MsgBooleanSingleOnly    = "Boolean 필드는 단일 조건만 사용할 수 있습니다"
	MsgOperatorInvalid      = "유효한 연산자를 선택해주세요"
	MsgOperatorSingle       = "단일 조건은 이상 또는 이하 연산자만 사용할 수 있습니다"
	MsgOperatorRange        = "범위 조건은 BETWEEN 연산자만 사용할 수 있습니다"
	MsgBooleanRequired      = "Boolean 값을 선택해주세요"
	MsgBooleanNotAllowed    = "숫자 필드에는 Boolean 값을 사용할 수 없습니다"
	MsgThresholdRequired    = "임계값을 입력해주세요"
	MsgThresholdNumeric     = "임계값은 숫자여야 합니다"
	MsgThresholdNotAllowed  = "범위 조건에는 임계값을 사용할 수 없습니다"
	MsgLeftRequired         = "최소값을 입력해주세요"
	MsgLeftNumeric          = "최소값은 숫자여야 합니다"
	MsgRightRequired        = "최대값을 입력해주세요"
	MsgRightNumeric         = "최대값은 숫자여야 합니다"
	MsgRangeOrder           = "최소값은 최대값보다 작아야 합니다"
	MsgRangeNotAllowed      = "단일 조건에는 범위 값을 사용할 수 없습니다"
	MsgNumericNotAllowed    = "Boolean 필드에는 숫자 값을 사용할 수 없습니다"
	MsgGuideMessageTooLong  = "안내 메시지가 너무 깁니다"
)

// Result is the outcome of validating one record.
type Result struct {
	IsValid     bool              `json:"isValid"`
	Errors      []string          `json:"errors"`
	FieldErrors map[string]string `json:"fieldErrors"`
}

// HasFieldError reports whether field carries a message.
func (r Result) HasFieldError(field string) bool {
	_, ok := r.FieldErrors[field]
	return ok
}

// SetResult is the aggregate outcome of validating a whole working set.
type SetResult struct {
	IsValid       bool     `json:"isValid"`
	HasConditions bool     `json:"hasConditions"`
	Errors        []string `json:"errors"`
	Results       []Result `json:"results"`
}

// FieldStatus flags inputs that should be highlighted. True means the input
// is empty or invalid. Used for rendering only; never gates an action.
type FieldStatus struct {
	FieldKey       bool `json:"fieldKey"`
	Level          bool `json:"level"`
	BooleanValue   bool `json:"booleanValue"`
	ThresholdValue bool `json:"thresholdValue"`
	LeftValue      bool `json:"leftValue"`
	RightValue     bool `json:"rightValue"`
}

// Validate checks c against the catalog. others holds the sibling records of
// the same working set, excluding c itself; nil skips duplicate detection.
func Validate(c types.EventCondition, catalog Catalog, others []types.EventCondition) Result {
	return validate(c, catalog, others, -1, others != nil)
}

// ValidateSet validates every record against all the others.
// IsValid is true only if every record passes; an empty set is valid but
// HasConditions is false.
func ValidateSet(list []types.EventCondition, catalog Catalog) SetResult {
	out := SetResult{
		IsValid:       true,
		HasConditions: len(list) > 0,
		Errors:        []string{},
		Results:       make([]Result, len(list)),
	}

	seen := make(map[string]struct{})
	for i, c := range list {
		r := validate(c, catalog, list, i, true)
		out.Results[i] = r
		if !r.IsValid {
			out.IsValid = false
		}
		for _, msg := range r.Errors {
			if _, dup := seen[msg]; dup {
				continue
			}
			seen[msg] = struct{}{}
			out.Errors = append(out.Errors, msg)
		}
	}
	return out
}

// RequiredFieldsStatus re-runs structural validation and reports which
// inputs carry an error. Duplicate detection is not part of this check.
func RequiredFieldsStatus(c types.EventCondition, catalog Catalog) FieldStatus {
	r := Validate(c, catalog, nil)
	return FieldStatus{
		FieldKey:       r.HasFieldError(FieldFieldKey),
		Level:          r.HasFieldError(FieldLevel),
		BooleanValue:   r.HasFieldError(FieldBooleanValue),
		ThresholdValue: r.HasFieldError(FieldThresholdValue),
		LeftValue:      r.HasFieldError(FieldLeftValue),
		RightValue:     r.HasFieldError(FieldRightValue),
	}
}

// validate runs the structural pass and, when checkDuplicates is set, scans
// siblings (skipping index self) for an identical rule.
func validate(c types.EventCondition, catalog Catalog, siblings []types.EventCondition, self int, checkDuplicates bool) Result {
	v := newCollector()

	validateCommon(v, c, catalog)

	switch {
	case catalog.IsBoolean(c.FieldKey):
		validateBoolean(v, c)
	case c.ConditionType == types.ConditionTypeRange:
		validateRange(v, c)
	default:
		validateSingle(v, c)
	}

	if checkDuplicates {
		if msg, ok := findDuplicate(c, catalog, siblings, self); ok {
			v.add(FieldFieldKey, msg)
		}
	}

	return v.result()
}

func validateCommon(v *collector, c types.EventCondition, catalog Catalog) {
	if c.ObjectID == "" {
		v.add(FieldObjectID, MsgObjectIDRequired)
	}

	profile, known := catalog.Lookup(c.FieldKey)
	switch {
	case c.FieldKey == "":
		v.add(FieldFieldKey, MsgFieldKeyRequired)
	case !known:
		v.add(FieldFieldKey, MsgFieldKeyUnknown)
	}

	switch {
	case !c.Level.Valid():
		v.add(FieldLevel, MsgLevelInvalid)
	case known && !levelAllowed(catalog.AllowedLevels(c.FieldKey), c.Level):
		if profile.IsBoolean() {
			v.add(FieldLevel, MsgLevelBoolean)
		} else {
			v.add(FieldLevel, MsgLevelNumeric)
		}
	}

	if !c.ConditionType.Valid() {
		v.add(FieldConditionType, MsgConditionTypeInvalid)
	}
	if !c.Operator.Valid() {
		v.add(FieldOperator, MsgOperatorInvalid)
	}
	if len([]rune(c.GuideMessage)) > types.MaxGuideMessageLength {
		v.add(FieldGuideMessage, MsgGuideMessageTooLong)
	}
}

func validateBoolean(v *collector, c types.EventCondition) {
	if c.ConditionType == types.ConditionTypeRange {
		v.add(FieldConditionType, MsgBooleanSingleOnly)
	}
	if c.BooleanValue == nil {
		v.add(FieldBooleanValue, MsgBooleanRequired)
	}
	if c.ThresholdValue != nil {
		v.add(FieldThresholdValue, MsgNumericNotAllowed)
	}
	if c.LeftValue != nil {
		v.add(FieldLeftValue, MsgNumericNotAllowed)
	}
	if c.RightValue != nil {
		v.add(FieldRightValue, MsgNumericNotAllowed)
	}
}

func validateSingle(v *collector, c types.EventCondition) {
	if c.Operator.Valid() && c.Operator != types.OperatorGE && c.Operator != types.OperatorLE {
		v.add(FieldOperator, MsgOperatorSingle)
	}
	requireNumber(v, FieldThresholdValue, c.ThresholdValue, MsgThresholdRequired, MsgThresholdNumeric)
	if c.BooleanValue != nil {
		v.add(FieldBooleanValue, MsgBooleanNotAllowed)
	}
	if c.LeftValue != nil {
		v.add(FieldLeftValue, MsgRangeNotAllowed)
	}
	if c.RightValue != nil {
		v.add(FieldRightValue, MsgRangeNotAllowed)
	}
}

func validateRange(v *collector, c types.EventCondition) {
	if c.Operator.Valid() && c.Operator != types.OperatorBetween {
		v.add(FieldOperator, MsgOperatorRange)
	}
	leftOK := requireNumber(v, FieldLeftValue, c.LeftValue, MsgLeftRequired, MsgLeftNumeric)
	rightOK := requireNumber(v, FieldRightValue, c.RightValue, MsgRightRequired, MsgRightNumeric)
	if leftOK && rightOK && !(*c.LeftValue < *c.RightValue) {
		v.add(FieldLeftValue, MsgRangeOrder)
	}
	if c.ThresholdValue != nil {
		v.add(FieldThresholdValue, MsgThresholdNotAllowed)
	}
	if c.BooleanValue != nil {
		v.add(FieldBooleanValue, MsgBooleanNotAllowed)
	}
}

// requireNumber reports a missing or non-finite value. Returns true when usable.
func requireNumber(v *collector, field string, f *float64, missing, notNumeric string) bool {
	if f == nil {
		v.add(field, missing)
		return false
	}
	if math.IsNaN(*f) || math.IsInf(*f, 0) {
		v.add(field, notNumeric)
		return false
	}
	return true
}

// collector accumulates messages in the order checks run.
type collector struct {
	errors      []string
	fieldErrors map[string]string
}

func newCollector() *collector {
	return &collector{
		errors:      []string{},
		fieldErrors: make(map[string]string),
	}
}

func (v *collector) add(field, msg string) {
	v.errors = append(v.errors, msg)
	if _, exists := v.fieldErrors[field]; !exists {
		v.fieldErrors[field] = msg
	}
}

func (v *collector) result() Result {
	return Result{
		IsValid:     len(v.errors) == 0,
		Errors:      v.errors,
		FieldErrors: v.fieldErrors,
	}
}
