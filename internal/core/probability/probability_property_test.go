//go:build property

package probability_test

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/louisbranch/rollcheck/internal/core/check"
	"github.com/louisbranch/rollcheck/internal/core/dice"
	"github.com/louisbranch/rollcheck/internal/core/evaluator"
	"github.com/louisbranch/rollcheck/internal/core/modifier"
	"github.com/louisbranch/rollcheck/internal/core/probability"
	"github.com/louisbranch/rollcheck/internal/core/roller"
	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

func genDie() gopter.Gen {
	kinds := dice.Kinds()
	values := make([]any, len(kinds))
	for i, k := range kinds {
		values[i] = k
	}
	return gen.OneConstOf(values...)
}

func genKind() gopter.Gen {
	return gen.OneConstOf(check.KindExact, check.KindAtLeast, check.KindAtMost, check.KindSkill)
}

func genPolicy() gopter.Gen {
	return gen.OneConstOf(check.CritDefault, check.CritOn, check.CritOff)
}

// TestProbabilitiesSumToOne checks that every analyzed distribution is complete.
func TestProbabilitiesSumToOne(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	ev := evaluator.New(evaluator.NewCache())

	properties.Property("outcome probabilities sum to 1", prop.ForAll(
		func(die dice.Kind, kind check.TestKind, seed int, policy check.CritPolicy) bool {
			target := 1 + seed%die.Sides()
			cond, err := check.NewConditions(kind, check.Target(target), die)
			if err != nil {
				return false
			}
			report, err := probability.AnalyzeTest(ev, die, cond, policy)
			if err != nil {
				return false
			}
			sum := 0.0
			for _, c := range report.Outcomes {
				sum += c.Probability
			}
			return math.Abs(sum-1) < 1e-9 && report.SuccessCount+report.FailureCount == die.Sides()
		},
		genDie(),
		genKind(),
		gen.IntRange(0, 1000),
		genPolicy(),
	))

	properties.TestingRun(t)
}

// TestSkillNaturalCritInvariant checks the max and min faces of skill tests.
func TestSkillNaturalCritInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	ev := evaluator.New(evaluator.NewCache())

	properties.Property("natural max is critical success, natural 1 critical failure", prop.ForAll(
		func(die dice.Kind, a, b int, bonus int) bool {
			sides := die.Sides()
			target := 2 + a%(sides-1)
			cf := 1 + b%(target-1)
			mod := modifier.Add(bonus)
			cond, err := check.NewModifiedConditions(check.KindSkill, check.Skill(target+bonus, 0, cf+bonus), die, mod)
			if err != nil {
				return false
			}
			m, err := ev.Build(die, cond, mod, check.CritDefault)
			if err != nil {
				return false
			}
			return m.Outcome(sides) == check.OutcomeCriticalSuccess && m.Outcome(1) == check.OutcomeCriticalFailure
		},
		genDie(),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
		gen.IntRange(-50, 50),
	))

	properties.TestingRun(t)
}

// TestModifiedRangeEndpoints checks acceptance exactly at the range edges.
func TestModifiedRangeEndpoints(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("endpoints accepted, outside rejected", prop.ForAll(
		func(die dice.Kind, bonus, factor int) bool {
			mod := modifier.Chain(modifier.Multiply(factor), modifier.Add(bonus))
			rng, err := check.ModifiedRange(die, mod)
			if err != nil {
				return false
			}
			for _, target := range []int{rng.Min, rng.Max} {
				if _, err := check.NewModifiedConditions(check.KindExact, check.Target(target), die, mod); err != nil {
					return false
				}
			}
			for _, target := range []int{rng.Min - 1, rng.Max + 1} {
				if _, err := check.NewModifiedConditions(check.KindExact, check.Target(target), die, mod); !apperrors.IsRange(err) {
					return false
				}
			}
			return true
		},
		genDie(),
		gen.IntRange(-100, 100),
		gen.IntRange(-5, 5).SuchThat(func(v int) bool { return v != 0 }),
	))

	properties.TestingRun(t)
}

// TestAdvantageSelection checks rank-based selection for every outcome pair.
func TestAdvantageSelection(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)
	outcomes := gen.OneConstOf(
		check.OutcomeCriticalFailure,
		check.OutcomeFailure,
		check.OutcomeSuccess,
		check.OutcomeCriticalSuccess,
	)

	properties.Property("advantage keeps the higher rank, disadvantage the lower, ties the first", prop.ForAll(
		func(first, second check.Outcome) bool {
			pair := [2]check.Outcome{first, second}
			adv := roller.SelectByRank(dice.ModeAdvantage, first, second)
			dis := roller.SelectByRank(dice.ModeDisadvantage, first, second)
			if first == second {
				return adv == 0 && dis == 0
			}
			return !pair[adv].Less(pair[1-adv]) && !pair[1-dis].Less(pair[dis])
		},
		outcomes,
		outcomes,
	))

	properties.TestingRun(t)
}
