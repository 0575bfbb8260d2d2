package service

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/rollcheck/internal/services/mcp/domain"
)

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
}

func registerRollTools(registrar mcpRegistrationTarget, env domain.Env) error {
	if err := registerTool(registrar, domain.RollTestTool(), domain.RollTestHandler(env)); err != nil {
		return err
	}
	return registerTool(registrar, domain.RollPoolTool(), domain.RollPoolHandler(env))
}

func registerAnalysisTools(registrar mcpRegistrationTarget, env domain.Env) error {
	if err := registerTool(registrar, domain.AnalyzeTestTool(), domain.AnalyzeTestHandler(env)); err != nil {
		return err
	}
	return registerTool(registrar, domain.ExplainRollTool(), domain.ExplainRollHandler(env))
}

func registerTool(registrar mcpRegistrationTarget, tool *mcp.Tool, handler any) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	return registrar.AddTool(tool, handler)
}
