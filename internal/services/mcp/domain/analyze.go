package domain

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/rollcheck/internal/core/probability"
	"github.com/louisbranch/rollcheck/internal/core/rulebook"
)

// AnalyzeTestInput represents the MCP tool input for a distribution analysis.
type AnalyzeTestInput struct {
	Check      string              `json:"check,omitempty" jsonschema:"name of a rulebook check"`
	Definition *rulebook.CheckSpec `json:"definition,omitempty" jsonschema:"inline check definition, used when check is empty"`
}

// ProbabilityOutcomeCount represents a counted outcome for probabilities.
type ProbabilityOutcomeCount struct {
	Outcome     string  `json:"outcome" jsonschema:"outcome key"`
	Label       string  `json:"label" jsonschema:"localized outcome"`
	Count       int     `json:"count" jsonschema:"number of faces producing it"`
	Probability float64 `json:"probability" jsonschema:"share of faces producing it"`
	Faces       []int   `json:"faces" jsonschema:"raw faces producing it, ascending"`
}

// FaceResult is the evaluation of one face.
type FaceResult struct {
	Base     int    `json:"base" jsonschema:"raw face"`
	Modified int    `json:"modified" jsonschema:"value after the modifier"`
	Outcome  string `json:"outcome" jsonschema:"outcome key"`
}

// RangeResult is an inclusive range.
type RangeResult struct {
	Min int `json:"min" jsonschema:"lowest achievable value"`
	Max int `json:"max" jsonschema:"highest achievable value"`
}

// AnalyzeTestResult represents the MCP tool output for a distribution analysis.
type AnalyzeTestResult struct {
	Die                string                    `json:"die" jsonschema:"die analyzed"`
	Test               string                    `json:"test" jsonschema:"test kind"`
	TotalPossibilities int                       `json:"total_possibilities" jsonschema:"number of faces"`
	SuccessCount       int                       `json:"success_count" jsonschema:"faces producing a success"`
	FailureCount       int                       `json:"failure_count" jsonschema:"faces producing a failure"`
	SuccessProbability float64                   `json:"success_probability" jsonschema:"probability of a success"`
	FailureProbability float64                   `json:"failure_probability" jsonschema:"probability of a failure"`
	NaturalCrit        bool                      `json:"natural_crit" jsonschema:"whether natural crits applied"`
	OutcomeCounts      []ProbabilityOutcomeCount `json:"outcome_counts" jsonschema:"counts per outcome, lowest rank first"`
	Faces              []FaceResult              `json:"faces" jsonschema:"evaluation of every face"`
	Modifier           string                    `json:"modifier,omitempty" jsonschema:"modifier key, when modified"`
	AchievableRange    *RangeResult              `json:"achievable_range,omitempty" jsonschema:"range reachable through the modifier"`
}

// ExplainRollInput represents the MCP tool input for an explanation.
type ExplainRollInput struct {
	Check      string              `json:"check,omitempty" jsonschema:"name of a rulebook check"`
	Definition *rulebook.CheckSpec `json:"definition,omitempty" jsonschema:"inline check definition, used when check is empty"`
	Base       int                 `json:"base" jsonschema:"raw face to explain"`
}

// ExplainStep represents a deterministic evaluation step.
type ExplainStep struct {
	Code    string         `json:"code" jsonschema:"stable step identifier"`
	Message string         `json:"message" jsonschema:"human-readable step description"`
	Data    map[string]any `json:"data" jsonschema:"structured step payload"`
}

// ExplainRollResult represents the MCP tool output for an explanation.
type ExplainRollResult struct {
	Die          string        `json:"die" jsonschema:"die rolled"`
	Test         string        `json:"test" jsonschema:"test kind"`
	Base         int           `json:"base" jsonschema:"raw face"`
	Modified     int           `json:"modified" jsonschema:"value after the modifier"`
	Outcome      string        `json:"outcome" jsonschema:"outcome key"`
	OutcomeLabel string        `json:"outcome_label" jsonschema:"localized outcome"`
	NaturalCrit  bool          `json:"natural_crit" jsonschema:"whether a natural crit decided the outcome"`
	Steps        []ExplainStep `json:"steps" jsonschema:"ordered evaluation steps"`
}

// AnalyzeTestTool defines the MCP tool schema for distribution analysis.
func AnalyzeTestTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "analyze_test",
		Description: "Computes the exact outcome distribution of a test over every face of its die",
	}
}

// ExplainRollTool defines the MCP tool schema for explanations.
func ExplainRollTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "explain_roll",
		Description: "Explains step by step how a known face is judged by a test",
	}
}

// AnalyzeTestHandler enumerates a named or inline check.
func AnalyzeTestHandler(env Env) mcp.ToolHandlerFor[AnalyzeTestInput, AnalyzeTestResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input AnalyzeTestInput) (*mcp.CallToolResult, AnalyzeTestResult, error) {
		c, err := env.resolveCheck(input.Check, input.Definition)
		if err != nil {
			return nil, AnalyzeTestResult{}, env.fail(err)
		}

		var (
			report   probability.Report
			modified map[int]int
			result   AnalyzeTestResult
		)
		if c.Modifier != nil {
			mr, err := probability.AnalyzeModifiedTest(env.evaluator(), c.Die, c.Modifier, c.Conditions, c.Policy)
			if err != nil {
				return nil, AnalyzeTestResult{}, env.fail(err)
			}
			report, modified = mr.Report, mr.ModifiedMapping
			result.Modifier = mr.ModifierKey
			result.AchievableRange = &RangeResult{Min: mr.AchievableRange.Min, Max: mr.AchievableRange.Max}
		} else {
			report, err = probability.AnalyzeTest(env.evaluator(), c.Die, c.Conditions, c.Policy)
			if err != nil {
				return nil, AnalyzeTestResult{}, env.fail(err)
			}
		}

		result.Die = report.Die.String()
		result.Test = string(report.Kind)
		result.TotalPossibilities = report.TotalPossibilities
		result.SuccessCount = report.SuccessCount
		result.FailureCount = report.FailureCount
		result.SuccessProbability = report.SuccessProbability
		result.FailureProbability = report.FailureProbability
		result.NaturalCrit = report.NaturalCrit
		for _, oc := range report.Outcomes {
			faces := report.Groups[oc.Outcome]
			if faces == nil {
				faces = []int{}
			}
			result.OutcomeCounts = append(result.OutcomeCounts, ProbabilityOutcomeCount{
				Outcome:     oc.Outcome.Key(),
				Label:       env.outcomeLabel(oc.Outcome),
				Count:       oc.Count,
				Probability: oc.Probability,
				Faces:       faces,
			})
		}
		for base := 1; base <= report.TotalPossibilities; base++ {
			value := base
			if modified != nil {
				value = modified[base]
			}
			result.Faces = append(result.Faces, FaceResult{
				Base:     base,
				Modified: value,
				Outcome:  report.Mapping[base].Key(),
			})
		}
		return nil, result, nil
	}
}

// ExplainRollHandler explains how one face of a named or inline check is judged.
func ExplainRollHandler(env Env) mcp.ToolHandlerFor[ExplainRollInput, ExplainRollResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ExplainRollInput) (*mcp.CallToolResult, ExplainRollResult, error) {
		c, err := env.resolveCheck(input.Check, input.Definition)
		if err != nil {
			return nil, ExplainRollResult{}, env.fail(err)
		}
		explained, err := env.evaluator().Explain(c.Die, c.Conditions, c.Modifier, c.Policy, input.Base)
		if err != nil {
			return nil, ExplainRollResult{}, env.fail(err)
		}

		steps := make([]ExplainStep, 0, len(explained.Steps))
		for _, step := range explained.Steps {
			data := step.Data
			if data == nil {
				data = map[string]any{}
			}
			steps = append(steps, ExplainStep{Code: step.Code, Message: step.Message, Data: data})
		}
		entry := explained.Entry
		return nil, ExplainRollResult{
			Die:          c.Die.String(),
			Test:         string(c.Conditions.Kind()),
			Base:         entry.Base,
			Modified:     entry.Modified,
			Outcome:      entry.Outcome.Key(),
			OutcomeLabel: env.outcomeLabel(entry.Outcome),
			NaturalCrit:  entry.NaturalCrit,
			Steps:        steps,
		}, nil
	}
}
