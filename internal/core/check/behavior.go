package check

import (
	"fmt"
	"strconv"

	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

// Behavior is the per-kind contract of the registry: how a kind's parameters
// are validated, how a value is judged, and how natural crits apply to it.
type Behavior interface {
	// ValidateShape reports missing or structurally invalid parameters.
	ValidateShape(p Params) error
	// ValidateRange reports parameters outside r or in an invalid order.
	// It is only called after ValidateShape succeeds.
	ValidateRange(p Params, r Range) error
	// Evaluate judges a (possibly modified) value.
	Evaluate(value int, p Params) Outcome
	// NaturalCrit returns the forced outcome for a raw base roll, if any.
	NaturalCrit(base, sides int) (Outcome, bool)
	// DefaultNaturalCrit reports whether overrides apply under CritDefault.
	DefaultNaturalCrit() bool
}

type compare func(value, target int) bool

// thresholdBehavior covers exact, at_least and at_most.
type thresholdBehavior struct {
	kind    TestKind
	compare compare
	// crit maps the natural max and min faces to forced outcomes.
	critMax, critMin Outcome
}

func (b thresholdBehavior) ValidateShape(p Params) error {
	if p.Target == nil {
		return missingField(b.kind, "target")
	}
	return nil
}

func (b thresholdBehavior) ValidateRange(p Params, r Range) error {
	return checkInRange("target", *p.Target, r)
}

func (b thresholdBehavior) Evaluate(value int, p Params) Outcome {
	if b.compare(value, *p.Target) {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

func (b thresholdBehavior) NaturalCrit(base, sides int) (Outcome, bool) {
	if b.critMax == OutcomeUnspecified {
		return OutcomeUnspecified, false
	}
	switch base {
	case sides:
		return b.critMax, true
	case 1:
		return b.critMin, true
	default:
		return OutcomeUnspecified, false
	}
}

func (b thresholdBehavior) DefaultNaturalCrit() bool {
	return false
}

type withinBehavior struct{}

func (withinBehavior) ValidateShape(p Params) error {
	if p.Min == nil {
		return missingField(KindWithin, "min")
	}
	if p.Max == nil {
		return missingField(KindWithin, "max")
	}
	return nil
}

func (withinBehavior) ValidateRange(p Params, r Range) error {
	if err := checkInRange("min", *p.Min, r); err != nil {
		return err
	}
	if err := checkInRange("max", *p.Max, r); err != nil {
		return err
	}
	if *p.Min > *p.Max {
		return apperrors.WithMetadata(apperrors.CodeRangeBoundsInverse,
			fmt.Sprintf("min %d exceeds max %d", *p.Min, *p.Max),
			map[string]string{"Min": strconv.Itoa(*p.Min), "Max": strconv.Itoa(*p.Max)})
	}
	return nil
}

func (withinBehavior) Evaluate(value int, p Params) Outcome {
	if value >= *p.Min && value <= *p.Max {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

func (withinBehavior) NaturalCrit(int, int) (Outcome, bool) { return OutcomeUnspecified, false }

func (withinBehavior) DefaultNaturalCrit() bool { return false }

type inListBehavior struct{}

func (inListBehavior) ValidateShape(p Params) error {
	if len(p.Values) == 0 {
		return missingField(KindInList, "values")
	}
	return nil
}

func (inListBehavior) ValidateRange(p Params, r Range) error {
	for i, v := range p.Values {
		if err := checkInRange(fmt.Sprintf("values[%d]", i), v, r); err != nil {
			return err
		}
	}
	return nil
}

func (inListBehavior) Evaluate(value int, p Params) Outcome {
	for _, v := range p.Values {
		if v == value {
			return OutcomeSuccess
		}
	}
	return OutcomeFailure
}

func (inListBehavior) NaturalCrit(int, int) (Outcome, bool) { return OutcomeUnspecified, false }

func (inListBehavior) DefaultNaturalCrit() bool { return false }

type skillBehavior struct{}

func (skillBehavior) ValidateShape(p Params) error {
	if p.Target == nil {
		return missingField(KindSkill, "target")
	}
	return nil
}

func (skillBehavior) ValidateRange(p Params, r Range) error {
	if err := checkInRange("target", *p.Target, r); err != nil {
		return err
	}
	if p.CriticalSuccess != nil {
		if err := checkInRange("critical_success", *p.CriticalSuccess, r); err != nil {
			return err
		}
		if *p.CriticalSuccess < *p.Target {
			return critOrderError(fmt.Sprintf("critical success %d < target %d", *p.CriticalSuccess, *p.Target))
		}
	}
	if p.CriticalFailure != nil {
		if err := checkInRange("critical_failure", *p.CriticalFailure, r); err != nil {
			return err
		}
		if *p.CriticalFailure >= *p.Target {
			return critOrderError(fmt.Sprintf("critical failure %d >= target %d", *p.CriticalFailure, *p.Target))
		}
	}
	return nil
}

func (skillBehavior) Evaluate(value int, p Params) Outcome {
	switch {
	case p.CriticalFailure != nil && value <= *p.CriticalFailure:
		return OutcomeCriticalFailure
	case p.CriticalSuccess != nil && value >= *p.CriticalSuccess:
		return OutcomeCriticalSuccess
	case MeetsDifficulty(value, *p.Target):
		return OutcomeSuccess
	default:
		return OutcomeFailure
	}
}

func (skillBehavior) NaturalCrit(base, sides int) (Outcome, bool) {
	switch base {
	case sides:
		return OutcomeCriticalSuccess, true
	case 1:
		return OutcomeCriticalFailure, true
	default:
		return OutcomeUnspecified, false
	}
}

func (skillBehavior) DefaultNaturalCrit() bool { return true }

func critOrderError(detail string) error {
	return apperrors.WithMetadata(apperrors.CodeRangeCritOrder,
		"critical thresholds out of order: "+detail,
		map[string]string{"Detail": detail})
}

func builtinBehaviors() map[TestKind]Behavior {
	return map[TestKind]Behavior{
		KindExact: thresholdBehavior{
			kind:    KindExact,
			compare: func(value, target int) bool { return value == target },
		},
		KindAtLeast: thresholdBehavior{
			kind:    KindAtLeast,
			compare: MeetsDifficulty,
			critMax: OutcomeSuccess,
			critMin: OutcomeFailure,
		},
		KindAtMost: thresholdBehavior{
			kind:    KindAtMost,
			compare: func(value, target int) bool { return value <= target },
			critMax: OutcomeFailure,
			critMin: OutcomeSuccess,
		},
		KindWithin: withinBehavior{},
		KindInList: inListBehavior{},
		KindSkill:  skillBehavior{},
	}
}
