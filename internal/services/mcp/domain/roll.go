package domain

import (
	"context"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/rollcheck/internal/core/aggregate"
	"github.com/louisbranch/rollcheck/internal/core/check"
	"github.com/louisbranch/rollcheck/internal/core/dice"
	"github.com/louisbranch/rollcheck/internal/core/roller"
	"github.com/louisbranch/rollcheck/internal/core/rulebook"
)

// RollTestInput represents the MCP tool input for a roll against a test.
type RollTestInput struct {
	Check      string              `json:"check,omitempty" jsonschema:"name of a rulebook check"`
	Definition *rulebook.CheckSpec `json:"definition,omitempty" jsonschema:"inline check definition, used when check is empty"`
	Mode       string              `json:"mode,omitempty" jsonschema:"roll mode: normal, advantage or disadvantage"`
	Rng        *RngRequest         `json:"rng,omitempty" jsonschema:"optional rng configuration"`
}

// CandidateResult is one evaluated draw.
type CandidateResult struct {
	Base        int    `json:"base" jsonschema:"raw face"`
	Modified    int    `json:"modified" jsonschema:"value after the modifier"`
	Outcome     string `json:"outcome" jsonschema:"outcome key"`
	NaturalCrit bool   `json:"natural_crit" jsonschema:"whether a natural crit decided the outcome"`
}

// RollTestResult represents the MCP tool output for a roll against a test.
type RollTestResult struct {
	Die          string            `json:"die" jsonschema:"die rolled"`
	Test         string            `json:"test" jsonschema:"test kind"`
	Mode         string            `json:"mode" jsonschema:"roll mode applied"`
	Base         int               `json:"base" jsonschema:"kept raw face"`
	Modified     int               `json:"modified" jsonschema:"kept value after the modifier"`
	Outcome      string            `json:"outcome" jsonschema:"outcome key"`
	OutcomeLabel string            `json:"outcome_label" jsonschema:"localized outcome"`
	Success      bool              `json:"success" jsonschema:"whether the outcome is a success"`
	Critical     bool              `json:"critical" jsonschema:"whether the outcome is a critical success or failure"`
	NaturalCrit  bool              `json:"natural_crit" jsonschema:"whether a natural crit decided the outcome"`
	Candidates   []CandidateResult `json:"candidates" jsonschema:"every draw, in roll order"`
	Selected     int               `json:"selected" jsonschema:"index of the kept candidate"`
	Rng          RngResult         `json:"rng" jsonschema:"rng details"`
}

// RollPoolInput represents the MCP tool input for a dice pool.
type RollPoolInput struct {
	Pool       string             `json:"pool,omitempty" jsonschema:"name of a rulebook pool"`
	Definition *rulebook.PoolSpec `json:"definition,omitempty" jsonschema:"inline pool definition, used when pool is empty"`
	Rolls      []int              `json:"rolls,omitempty" jsonschema:"known faces to evaluate instead of rolling"`
	Rng        *RngRequest        `json:"rng,omitempty" jsonschema:"optional rng configuration"`
}

// ValueCount is how often a face appeared.
type ValueCount struct {
	Value int `json:"value" jsonschema:"raw face"`
	Count int `json:"count" jsonschema:"number of dice showing it"`
}

// PoolRuleResult is the outcome of one pool rule.
type PoolRuleResult struct {
	Index     int    `json:"index" jsonschema:"rule position"`
	Kind      string `json:"kind" jsonschema:"value_count or condition_count"`
	Threshold string `json:"threshold" jsonschema:"comparison applied to the count"`
	Count     int    `json:"count" jsonschema:"dice counted by the rule"`
	Passed    bool   `json:"passed" jsonschema:"whether the threshold was met"`
}

// RollPoolResult represents the MCP tool output for a dice pool.
type RollPoolResult struct {
	Die                   string           `json:"die" jsonschema:"die rolled by every die in the pool"`
	Values                []int            `json:"values" jsonschema:"raw faces, in roll order"`
	Sum                   int              `json:"sum" jsonschema:"sum of the raw faces"`
	Outcomes              [][]string       `json:"outcomes" jsonschema:"outcome of each check for each die"`
	ConditionSuccessCount []int            `json:"condition_success_count" jsonschema:"dice passing each check"`
	ValueFrequency        []ValueCount     `json:"value_frequency" jsonschema:"raw face counts, ascending by face"`
	Rules                 []PoolRuleResult `json:"rules" jsonschema:"rule results"`
	Passed                bool             `json:"passed" jsonschema:"whether every rule passed"`
	Rng                   *RngResult       `json:"rng,omitempty" jsonschema:"rng details, absent when rolls were supplied"`
}

// RollTestTool defines the MCP tool schema for rolls against a test.
func RollTestTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "roll_test",
		Description: "Rolls a die against a test, with optional advantage or disadvantage",
	}
}

// RollPoolTool defines the MCP tool schema for dice pools.
func RollPoolTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "roll_pool",
		Description: "Rolls or evaluates a pool of dice against per-die checks and threshold rules",
	}
}

// RollTestHandler rolls against a named or inline check.
func RollTestHandler(env Env) mcp.ToolHandlerFor[RollTestInput, RollTestResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollTestInput) (*mcp.CallToolResult, RollTestResult, error) {
		c, err := env.resolveCheck(input.Check, input.Definition)
		if err != nil {
			return nil, RollTestResult{}, env.fail(err)
		}
		mode, err := dice.ParseRollMode(input.Mode)
		if err != nil {
			return nil, RollTestResult{}, env.fail(err)
		}
		r, rng, err := env.roller(input.Rng)
		if err != nil {
			return nil, RollTestResult{}, env.fail(err)
		}

		opts := roller.Options{Policy: c.Policy}
		var roll roller.TestRoll
		if c.Modifier != nil {
			roll, err = r.RollAgainstModifiedTest(ctx, c.Die, c.Modifier, c.Conditions, mode, opts)
		} else {
			roll, err = r.RollAgainstTest(ctx, c.Die, c.Conditions, mode, opts)
		}
		if err != nil {
			return nil, RollTestResult{}, env.fail(err)
		}

		candidates := make([]CandidateResult, 0, len(roll.Candidates))
		for _, candidate := range roll.Candidates {
			candidates = append(candidates, CandidateResult{
				Base:        candidate.Base,
				Modified:    candidate.Modified,
				Outcome:     candidate.Outcome.Key(),
				NaturalCrit: candidate.NaturalCrit,
			})
		}
		return nil, RollTestResult{
			Die:          roll.Die.String(),
			Test:         string(c.Conditions.Kind()),
			Mode:         string(roll.Mode),
			Base:         roll.Base,
			Modified:     roll.Modified,
			Outcome:      roll.Outcome.Key(),
			OutcomeLabel: env.outcomeLabel(roll.Outcome),
			Success:      roll.Outcome.IsSuccess(),
			Critical:     roll.Outcome.IsCritical(),
			NaturalCrit:  roll.NaturalCrit,
			Candidates:   candidates,
			Selected:     roll.Selected,
			Rng:          rng,
		}, nil
	}
}

// RollPoolHandler rolls a named or inline pool, or evaluates supplied faces.
func RollPoolHandler(env Env) mcp.ToolHandlerFor[RollPoolInput, RollPoolResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollPoolInput) (*mcp.CallToolResult, RollPoolResult, error) {
		pool, err := env.resolvePool(input.Pool, input.Definition)
		if err != nil {
			return nil, RollPoolResult{}, env.fail(err)
		}

		var (
			values []int
			result aggregate.Result
			rng    *RngResult
		)
		if len(input.Rolls) > 0 {
			result, err = pool.Conditions.Evaluate(env.evaluator(), input.Rolls)
			if err != nil {
				return nil, RollPoolResult{}, env.fail(err)
			}
			values = append([]int(nil), input.Rolls...)
		} else {
			r, used, err := env.roller(input.Rng)
			if err != nil {
				return nil, RollPoolResult{}, env.fail(err)
			}
			roll, err := r.RollPool(ctx, pool.Die, pool.Conditions)
			if err != nil {
				return nil, RollPoolResult{}, env.fail(err)
			}
			values, result, rng = roll.Base.Values, roll.Result, &used
		}

		sum := 0
		for _, v := range values {
			sum += v
		}
		return nil, RollPoolResult{
			Die:                   pool.Die.String(),
			Values:                values,
			Sum:                   sum,
			Outcomes:              outcomeKeys(result.Matrix),
			ConditionSuccessCount: result.ConditionSuccessCount,
			ValueFrequency:        frequencies(result.ValueFrequency),
			Rules:                 ruleResults(result.RuleResults),
			Passed:                result.Passed,
			Rng:                   rng,
		}, nil
	}
}

func outcomeKeys(matrix [][]check.Outcome) [][]string {
	out := make([][]string, len(matrix))
	for i, row := range matrix {
		out[i] = make([]string, len(row))
		for j, o := range row {
			out[i][j] = o.Key()
		}
	}
	return out
}

func frequencies(freq map[int]int) []ValueCount {
	out := make([]ValueCount, 0, len(freq))
	for value, count := range freq {
		out = append(out, ValueCount{Value: value, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

func ruleResults(results []aggregate.RuleResult) []PoolRuleResult {
	out := make([]PoolRuleResult, 0, len(results))
	for _, r := range results {
		out = append(out, PoolRuleResult{
			Index:     r.Index,
			Kind:      string(r.Rule.Kind),
			Threshold: r.Threshold.String(),
			Count:     r.Count,
			Passed:    r.Passed,
		})
	}
	return out
}
