// Package aggregate evaluates a pool of dice against per-die checks and
// pool-wide counting rules ("at least two dice show a 6").
package aggregate

import (
	"fmt"
	"strconv"

	"github.com/louisbranch/rollcheck/internal/core/check"
	"github.com/louisbranch/rollcheck/internal/core/dice"
	"github.com/louisbranch/rollcheck/internal/core/evaluator"
	"github.com/louisbranch/rollcheck/internal/core/modifier"
	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

// Option configures Conditions.
type Option func(*Conditions)

// WithModifier applies mod to every die before its checks are evaluated.
// Value-count rules still count raw faces.
func WithModifier(mod *modifier.Modifier) Option {
	return func(c *Conditions) { c.modifier = mod }
}

// WithCritPolicy sets the natural-crit policy for every per-die check.
func WithCritPolicy(policy check.CritPolicy) Option {
	return func(c *Conditions) { c.policy = policy }
}

// Conditions bundles a pool size, the checks run on each die and the rules
// applied across the pool. Use New; the zero value is not valid.
type Conditions struct {
	die       dice.Kind
	diceCount int
	checks    []check.Conditions
	rules     []Rule
	modifier  *modifier.Modifier
	policy    check.CritPolicy
}

// New validates a pool definition. Every check must have been built for die
// and every rule must reference a known check.
func New(die dice.Kind, diceCount int, checks []check.Conditions, rules []Rule, opts ...Option) (Conditions, error) {
	if err := die.Validate(); err != nil {
		return Conditions{}, err
	}
	if diceCount < 1 {
		return Conditions{}, apperrors.WithMetadata(apperrors.CodeDiceInvalidSpec,
			fmt.Sprintf("dice count must be positive, got %d", diceCount),
			map[string]string{"Count": strconv.Itoa(diceCount)})
	}
	for i, cond := range checks {
		if !cond.Valid() || cond.Die() != die {
			field := fmt.Sprintf("checks[%d]", i)
			return Conditions{}, apperrors.WithMetadata(apperrors.CodeShapeInvalidType,
				fmt.Sprintf("%s is not a test built for %s", field, die),
				map[string]string{"Field": field, "Expected": "a test built for " + die.String()})
		}
	}
	for i, rule := range rules {
		if err := rule.validate(i, len(checks), die.Sides()); err != nil {
			return Conditions{}, err
		}
	}

	c := Conditions{
		die:       die,
		diceCount: diceCount,
		checks:    append([]check.Conditions(nil), checks...),
		rules:     cloneRules(rules),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c, nil
}

// Die returns the die kind of the pool.
func (c Conditions) Die() dice.Kind { return c.die }

// DiceCount returns the pool size.
func (c Conditions) DiceCount() int { return c.diceCount }

// Checks returns the per-die checks.
func (c Conditions) Checks() []check.Conditions {
	return append([]check.Conditions(nil), c.checks...)
}

// Rules returns the pool rules.
func (c Conditions) Rules() []Rule { return cloneRules(c.rules) }

// Modifier returns the per-die modifier, if any.
func (c Conditions) Modifier() *modifier.Modifier { return c.modifier }

// Policy returns the natural-crit policy.
func (c Conditions) Policy() check.CritPolicy { return c.policy }

// RuleResult is the outcome of one rule.
type RuleResult struct {
	Index     int       `json:"index"`
	Rule      Rule      `json:"rule"`
	Threshold Threshold `json:"threshold"`
	Count     int       `json:"count"`
	Passed    bool      `json:"passed"`
}

// Result is the evaluation of one set of rolls.
type Result struct {
	// Matrix holds the outcome of check j for die i at [i][j].
	Matrix                [][]check.Outcome `json:"matrix"`
	ConditionSuccessCount []int             `json:"condition_success_count"`
	// ValueFrequency counts raw faces, not modified values.
	ValueFrequency map[int]int  `json:"value_frequency"`
	RuleResults    []RuleResult `json:"rule_results"`
	Passed         bool         `json:"passed"`
}

// Evaluate judges rolls. len(rolls) must equal the pool size and every roll
// must be a face of the die.
func (c Conditions) Evaluate(ev *evaluator.Evaluator, rolls []int) (Result, error) {
	if c.diceCount == 0 {
		return Result{}, apperrors.New(apperrors.CodeDiceMissing, "pool conditions were not constructed")
	}
	if len(rolls) != c.diceCount {
		return Result{}, apperrors.WithMetadata(apperrors.CodeShapeRollCountMismatch,
			fmt.Sprintf("expected %d rolls, got %d", c.diceCount, len(rolls)),
			map[string]string{"Expected": strconv.Itoa(c.diceCount), "Got": strconv.Itoa(len(rolls))})
	}
	if ev == nil {
		ev = evaluator.New(nil)
	}

	maps := make([]*evaluator.OutcomeMap, len(c.checks))
	for j, cond := range c.checks {
		m, err := ev.Build(c.die, cond, c.modifier, c.policy)
		if err != nil {
			return Result{}, err
		}
		maps[j] = m
	}

	result := Result{
		Matrix:                make([][]check.Outcome, len(rolls)),
		ConditionSuccessCount: make([]int, len(c.checks)),
		ValueFrequency:        make(map[int]int),
		RuleResults:           make([]RuleResult, 0, len(c.rules)),
		Passed:                true,
	}
	for i, base := range rolls {
		if base < 1 || base > c.die.Sides() {
			return Result{}, evaluator.RollOutOfRangeError(base, c.die)
		}
		result.ValueFrequency[base]++
		row := make([]check.Outcome, len(maps))
		for j, m := range maps {
			row[j] = m.Outcome(base)
			if row[j].IsSuccess() {
				result.ConditionSuccessCount[j]++
			}
		}
		result.Matrix[i] = row
	}

	for i, rule := range c.rules {
		var count int
		switch rule.Kind {
		case RuleValueCount:
			count = result.ValueFrequency[rule.Value]
		case RuleConditionCount:
			if err := checkIndex(i, rule.ConditionIndex, len(c.checks)); err != nil {
				return Result{}, err
			}
			count = result.ConditionSuccessCount[rule.ConditionIndex]
		}
		threshold := rule.EffectiveThreshold()
		passed := threshold.Met(count)
		result.RuleResults = append(result.RuleResults, RuleResult{
			Index:     i,
			Rule:      rule,
			Threshold: threshold,
			Count:     count,
			Passed:    passed,
		})
		result.Passed = result.Passed && passed
	}
	return result, nil
}

func cloneRules(rules []Rule) []Rule {
	if rules == nil {
		return nil
	}
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = r
		if r.Threshold != nil {
			t := *r.Threshold
			out[i].Threshold = &t
		}
	}
	return out
}
