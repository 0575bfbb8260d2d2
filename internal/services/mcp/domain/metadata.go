package domain

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/rollcheck/internal/core/check"
	"github.com/louisbranch/rollcheck/internal/core/dice"
)

// RulesMetadataInput represents the MCP tool input for engine metadata.
type RulesMetadataInput struct{}

// DieInfo describes one die kind.
type DieInfo struct {
	Kind  string `json:"kind" jsonschema:"die kind"`
	Sides int    `json:"sides" jsonschema:"number of faces"`
}

// RulesMetadataResult represents the MCP tool output for engine metadata.
type RulesMetadataResult struct {
	Dice         []DieInfo `json:"dice" jsonschema:"supported dice"`
	TestKinds    []string  `json:"test_kinds" jsonschema:"registered test kinds"`
	Outcomes     []string  `json:"outcomes" jsonschema:"outcome keys, lowest rank first"`
	RollModes    []string  `json:"roll_modes" jsonschema:"supported roll modes"`
	CritPolicies []string  `json:"crit_policies" jsonschema:"natural crit policies"`
	Checks       []string  `json:"checks" jsonschema:"checks defined by the loaded rulebook"`
	Pools        []string  `json:"pools" jsonschema:"pools defined by the loaded rulebook"`
	CachedMaps   int       `json:"cached_maps" jsonschema:"outcome maps currently memoized"`
}

// RulesMetadataTool defines the MCP tool schema for engine metadata.
func RulesMetadataTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "rules_metadata",
		Description: "Describes the supported dice, test kinds, outcomes and loaded rulebook entries",
	}
}

// RulesMetadataHandler reports what the engine and rulebook support.
func RulesMetadataHandler(env Env) mcp.ToolHandlerFor[RulesMetadataInput, RulesMetadataResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ RulesMetadataInput) (*mcp.CallToolResult, RulesMetadataResult, error) {
		result := RulesMetadataResult{
			RollModes:    []string{string(dice.ModeNormal), string(dice.ModeAdvantage), string(dice.ModeDisadvantage)},
			CritPolicies: []string{check.CritDefault.String(), check.CritOn.String(), check.CritOff.String()},
			Checks:       []string{},
			Pools:        []string{},
			CachedMaps:   env.evaluator().Cache().Size(),
		}
		for _, kind := range dice.Kinds() {
			result.Dice = append(result.Dice, DieInfo{Kind: kind.String(), Sides: kind.Sides()})
		}
		for _, kind := range check.Builtin().Kinds() {
			result.TestKinds = append(result.TestKinds, string(kind))
		}
		for _, o := range check.Outcomes() {
			result.Outcomes = append(result.Outcomes, o.Key())
		}
		if env.Rulebook != nil {
			result.Checks = env.Rulebook.CheckNames()
			result.Pools = env.Rulebook.PoolNames()
		}
		return nil, result, nil
	}
}
