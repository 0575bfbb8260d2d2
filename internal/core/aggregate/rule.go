package aggregate

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

// RuleKind selects what a rule counts.
type RuleKind string

const (
	// RuleValueCount counts dice whose raw value equals Rule.Value.
	RuleValueCount RuleKind = "value_count"
	// RuleConditionCount counts dice that pass the check at Rule.ConditionIndex.
	RuleConditionCount RuleKind = "condition_count"
)

// Op compares a count against a threshold.
type Op string

const (
	OpExact   Op = "exact"
	OpAtLeast Op = "at_least"
	OpAtMost  Op = "at_most"
)

// Threshold is the comparison a rule's count must satisfy.
type Threshold struct {
	Op    Op  `json:"op" yaml:"op"`
	Count int `json:"count" yaml:"count"`
}

// DefaultThreshold is applied when a rule has none: at least one die.
var DefaultThreshold = Threshold{Op: OpAtLeast, Count: 1}

// Met reports whether count satisfies t.
func (t Threshold) Met(count int) bool {
	switch t.Op {
	case OpExact:
		return count == t.Count
	case OpAtMost:
		return count <= t.Count
	default:
		return count >= t.Count
	}
}

func (t Threshold) String() string {
	return fmt.Sprintf("%s %d", t.Op, t.Count)
}

// Rule is a threshold check applied across a pool.
type Rule struct {
	Kind           RuleKind   `json:"kind" yaml:"kind"`
	Value          int        `json:"value,omitempty" yaml:"value,omitempty"`
	ConditionIndex int        `json:"condition,omitempty" yaml:"condition,omitempty"`
	Threshold      *Threshold `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// ValueCount builds a value_count rule.
func ValueCount(value int, op Op, count int) Rule {
	return Rule{Kind: RuleValueCount, Value: value, Threshold: &Threshold{Op: op, Count: count}}
}

// ConditionCount builds a condition_count rule.
func ConditionCount(index int, op Op, count int) Rule {
	return Rule{Kind: RuleConditionCount, ConditionIndex: index, Threshold: &Threshold{Op: op, Count: count}}
}

// EffectiveThreshold returns the rule's threshold or DefaultThreshold.
func (r Rule) EffectiveThreshold() Threshold {
	if r.Threshold == nil {
		return DefaultThreshold
	}
	return *r.Threshold
}

// ParseRuleKind accepts value_count and condition_count in snake, kebab or
// camel case.
func ParseRuleKind(value string) (RuleKind, error) {
	switch normalize(value) {
	case "value_count", "valuecount":
		return RuleValueCount, nil
	case "condition_count", "conditioncount":
		return RuleConditionCount, nil
	default:
		return "", apperrors.WithMetadata(apperrors.CodeShapeInvalidRule,
			"unknown rule kind "+strconv.Quote(value),
			map[string]string{"Rule": value, "Reason": "unknown rule kind"})
	}
}

// ParseOp accepts exact, at_least and at_most; empty means at_least.
func ParseOp(value string) (Op, error) {
	switch normalize(value) {
	case "", "at_least", "atleast":
		return OpAtLeast, nil
	case "at_most", "atmost":
		return OpAtMost, nil
	case "exact":
		return OpExact, nil
	default:
		return "", apperrors.WithMetadata(apperrors.CodeShapeInvalidRule,
			"unknown threshold operator "+strconv.Quote(value),
			map[string]string{"Rule": value, "Reason": "unknown threshold operator"})
	}
}

func normalize(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")
}

func (r Rule) validate(index, conditions, sides int) error {
	rule := strconv.Itoa(index)
	invalid := func(reason string) error {
		return apperrors.WithMetadata(apperrors.CodeShapeInvalidRule,
			fmt.Sprintf("rule %d: %s", index, reason),
			map[string]string{"Rule": rule, "Reason": reason})
	}
	t := r.EffectiveThreshold()
	switch t.Op {
	case OpExact, OpAtLeast, OpAtMost:
	default:
		return invalid("unknown threshold operator " + strconv.Quote(string(t.Op)))
	}
	if t.Count < 0 {
		return invalid("threshold count must not be negative")
	}
	switch r.Kind {
	case RuleValueCount:
		if r.Value < 1 || r.Value > sides {
			return apperrors.WithMetadata(apperrors.CodeRangeTarget,
				fmt.Sprintf("rule %d value %d outside 1–%d", index, r.Value, sides),
				map[string]string{
					"Field":  "rules[" + rule + "].value",
					"Target": strconv.Itoa(r.Value),
					"Min":    "1",
					"Max":    strconv.Itoa(sides),
				})
		}
	case RuleConditionCount:
		if err := checkIndex(index, r.ConditionIndex, conditions); err != nil {
			return err
		}
	default:
		return invalid("unknown rule kind " + strconv.Quote(string(r.Kind)))
	}
	return nil
}

func checkIndex(rule, index, conditions int) error {
	if index >= 0 && index < conditions {
		return nil
	}
	return apperrors.WithMetadata(apperrors.CodeShapeRuleIndex,
		fmt.Sprintf("rule %d references condition %d of %d", rule, index, conditions),
		map[string]string{
			"Rule":  strconv.Itoa(rule),
			"Index": strconv.Itoa(index),
			"Count": strconv.Itoa(conditions),
		})
}
