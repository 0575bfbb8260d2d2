package evaluator

import (
	"github.com/louisbranch/rollcheck/internal/core/check"
	"github.com/louisbranch/rollcheck/internal/core/dice"
	"github.com/louisbranch/rollcheck/internal/core/modifier"
)

// ExplainStep is one stage of an evaluation.
type ExplainStep struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// ExplainResult is a deterministic trace of how one base roll was judged.
type ExplainResult struct {
	Entry Entry         `json:"entry"`
	Steps []ExplainStep `json:"steps"`
}

// Explain returns the steps that turn base into an outcome. The result
// always agrees with the outcome map for the same configuration.
func (e *Evaluator) Explain(die dice.Kind, cond check.Conditions, mod *modifier.Modifier, policy check.CritPolicy, base int) (ExplainResult, error) {
	m, err := e.Build(die, cond, mod, policy)
	if err != nil {
		return ExplainResult{}, err
	}
	entry, err := m.Lookup(base)
	if err != nil {
		return ExplainResult{}, err
	}

	evaluateData := map[string]any{
		"test":    string(cond.Kind()),
		"value":   entry.Modified,
		"outcome": entry.Evaluated.Key(),
	}
	if target := cond.Params().Target; target != nil {
		margin := check.Check(entry.Modified, *target)
		evaluateData["target"] = *target
		evaluateData["margin"] = margin.Margin
	}

	steps := []ExplainStep{
		{
			Code:    "ROLL_BASE",
			Message: "Read the raw face",
			Data: map[string]any{
				"die":  die.String(),
				"base": base,
			},
		},
		{
			Code:    "APPLY_MODIFIER",
			Message: "Apply modifier to the base roll",
			Data: map[string]any{
				"modifier": m.ModifierKey(),
				"base":     base,
				"modified": entry.Modified,
			},
		},
		{
			Code:    "EVALUATE_TEST",
			Message: "Compare the modified value to the test",
			Data:    evaluateData,
		},
		{
			Code:    "NATURAL_CRIT",
			Message: "Check natural crit on the raw face",
			Data: map[string]any{
				"enabled":    m.NaturalCrit(),
				"overridden": entry.NaturalCrit,
				"sides":      die.Sides(),
			},
		},
		{
			Code:    "SELECT_OUTCOME",
			Message: "Select the final outcome",
			Data: map[string]any{
				"outcome_code":  entry.Outcome.Key(),
				"outcome_label": entry.Outcome.String(),
				"rank":          entry.Outcome.Rank(),
			},
		},
	}
	return ExplainResult{Entry: entry, Steps: steps}, nil
}
