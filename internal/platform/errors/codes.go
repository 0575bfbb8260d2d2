// Package errors provides structured error handling with i18n support.
package errors

// Code is a machine-readable error code.
type Code string

// Class groups codes by the kind of validation that failed.
type Class string

const (
	// ClassUnknown is reported for codes outside the shape/range split.
	ClassUnknown Class = "unknown"
	// ClassShape marks structurally wrong input: missing fields, wrong types,
	// unknown enum values, mismatched lengths.
	ClassShape Class = "shape"
	// ClassRange marks structurally valid input with impossible numbers.
	ClassRange Class = "range"
)

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Shape errors
	CodeShapeMissingField      Code = "SHAPE_MISSING_FIELD"
	CodeShapeInvalidType       Code = "SHAPE_INVALID_TYPE"
	CodeShapeUnknownTestKind   Code = "SHAPE_UNKNOWN_TEST_KIND"
	CodeShapeUnknownDie        Code = "SHAPE_UNKNOWN_DIE"
	CodeShapeUnknownRollMode   Code = "SHAPE_UNKNOWN_ROLL_MODE"
	CodeShapeUnknownCritPolicy Code = "SHAPE_UNKNOWN_CRIT_POLICY"
	CodeShapeInvalidModifier   Code = "SHAPE_INVALID_MODIFIER"
	CodeShapeRollCountMismatch Code = "SHAPE_ROLL_COUNT_MISMATCH"
	CodeShapeRuleIndex         Code = "SHAPE_RULE_INDEX_OUT_OF_BOUNDS"
	CodeShapeInvalidRule       Code = "SHAPE_INVALID_RULE"
	CodeShapeUnknownName       Code = "SHAPE_UNKNOWN_NAME"
	CodeShapeMissingName       Code = "SHAPE_MISSING_NAME"

	// Dice/mechanics errors
	CodeDiceMissing     Code = "DICE_MISSING"
	CodeDiceInvalidSpec Code = "DICE_INVALID_SPEC"

	// Range errors
	CodeRangeTarget        Code = "RANGE_TARGET_OUT_OF_RANGE"
	CodeRangeBoundsInverse Code = "RANGE_BOUNDS_INVERTED"
	CodeRangeCritOrder     Code = "RANGE_CRIT_ORDER"
	CodeRangeRoll          Code = "RANGE_ROLL_OUT_OF_RANGE"
)

// Class maps a code to its validation class.
func (c Code) Class() Class {
	switch c {
	case CodeShapeMissingField,
		CodeShapeInvalidType,
		CodeShapeUnknownTestKind,
		CodeShapeUnknownDie,
		CodeShapeUnknownRollMode,
		CodeShapeUnknownCritPolicy,
		CodeShapeInvalidModifier,
		CodeShapeRollCountMismatch,
		CodeShapeRuleIndex,
		CodeShapeInvalidRule,
		CodeShapeUnknownName,
		CodeShapeMissingName,
		CodeDiceMissing,
		CodeDiceInvalidSpec:
		return ClassShape

	case CodeRangeTarget,
		CodeRangeBoundsInverse,
		CodeRangeCritOrder,
		CodeRangeRoll:
		return ClassRange

	default:
		return ClassUnknown
	}
}
