// Package probability computes exact outcome distributions by enumerating
// every face of a die through its outcome map.
package probability

import (
	"github.com/louisbranch/rollcheck/internal/core/check"
	"github.com/louisbranch/rollcheck/internal/core/dice"
	"github.com/louisbranch/rollcheck/internal/core/evaluator"
	"github.com/louisbranch/rollcheck/internal/core/modifier"
)

// OutcomeCount is the share of faces producing one outcome.
type OutcomeCount struct {
	Outcome     check.Outcome `json:"outcome"`
	Count       int           `json:"count"`
	Probability float64       `json:"probability"`
}

// Report is the full distribution of a test on one die.
type Report struct {
	Die                dice.Kind      `json:"die"`
	Kind               check.TestKind `json:"test"`
	TotalPossibilities int            `json:"total_possibilities"`
	// Outcomes lists every outcome from lowest to highest rank, including
	// outcomes with a zero count.
	Outcomes []OutcomeCount `json:"outcomes"`
	// Mapping is base roll to outcome.
	Mapping map[int]check.Outcome `json:"mapping"`
	// Groups lists the base rolls producing each outcome, ascending.
	Groups             map[check.Outcome][]int `json:"groups"`
	SuccessCount       int                     `json:"success_count"`
	FailureCount       int                     `json:"failure_count"`
	SuccessProbability float64                 `json:"success_probability"`
	FailureProbability float64                 `json:"failure_probability"`
	NaturalCrit        bool                    `json:"natural_crit"`
}

// ModifiedReport adds the modified values to a Report.
type ModifiedReport struct {
	Report
	ModifierKey     string      `json:"modifier"`
	ModifiedMapping map[int]int `json:"modified_mapping"`
	AchievableRange check.Range `json:"achievable_range"`
}

// Count returns the number of faces producing o.
func (r Report) Count(o check.Outcome) int {
	for _, c := range r.Outcomes {
		if c.Outcome == o {
			return c.Count
		}
	}
	return 0
}

// Probability returns the probability of o.
func (r Report) Probability(o check.Outcome) float64 {
	for _, c := range r.Outcomes {
		if c.Outcome == o {
			return c.Probability
		}
	}
	return 0
}

// AnalyzeTest enumerates every face of die against cond.
func AnalyzeTest(ev *evaluator.Evaluator, die dice.Kind, cond check.Conditions, policy check.CritPolicy) (Report, error) {
	m, err := build(ev, die, cond, nil, policy)
	if err != nil {
		return Report{}, err
	}
	return report(m), nil
}

// AnalyzeModifiedTest enumerates every face of die through mod against cond.
// The achievable range is the one mod reaches from the die's extremes.
func AnalyzeModifiedTest(ev *evaluator.Evaluator, die dice.Kind, mod *modifier.Modifier, cond check.Conditions, policy check.CritPolicy) (ModifiedReport, error) {
	m, err := build(ev, die, cond, mod, policy)
	if err != nil {
		return ModifiedReport{}, err
	}
	rng, err := check.ModifiedRange(die, mod)
	if err != nil {
		return ModifiedReport{}, err
	}
	modified := make(map[int]int, m.Sides())
	for _, entry := range m.Entries() {
		modified[entry.Base] = entry.Modified
	}
	return ModifiedReport{
		Report:          report(m),
		ModifierKey:     m.ModifierKey(),
		ModifiedMapping: modified,
		AchievableRange: rng,
	}, nil
}

func build(ev *evaluator.Evaluator, die dice.Kind, cond check.Conditions, mod *modifier.Modifier, policy check.CritPolicy) (*evaluator.OutcomeMap, error) {
	if ev == nil {
		ev = evaluator.New(nil)
	}
	return ev.Build(die, cond, mod, policy)
}

func report(m *evaluator.OutcomeMap) Report {
	total := m.Sides()
	counts := make(map[check.Outcome]int)
	mapping := make(map[int]check.Outcome, total)
	groups := make(map[check.Outcome][]int)
	for _, entry := range m.Entries() {
		counts[entry.Outcome]++
		mapping[entry.Base] = entry.Outcome
		groups[entry.Outcome] = append(groups[entry.Outcome], entry.Base)
	}

	r := Report{
		Die:                m.Die(),
		Kind:               m.Kind(),
		TotalPossibilities: total,
		Outcomes:           make([]OutcomeCount, 0, len(check.Outcomes())),
		Mapping:            mapping,
		Groups:             groups,
		NaturalCrit:        m.NaturalCrit(),
	}
	for _, o := range check.Outcomes() {
		r.Outcomes = append(r.Outcomes, OutcomeCount{
			Outcome:     o,
			Count:       counts[o],
			Probability: ratio(counts[o], total),
		})
		if o.IsSuccess() {
			r.SuccessCount += counts[o]
		} else {
			r.FailureCount += counts[o]
		}
	}
	r.SuccessProbability = ratio(r.SuccessCount, total)
	r.FailureProbability = ratio(r.FailureCount, total)
	return r
}

func ratio(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}
