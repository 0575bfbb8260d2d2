package service

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/rollcheck/internal/services/mcp/domain"
)

type mcpRegistrationModule struct {
	name     string
	register func(mcpRegistrationTarget) error
}

const (
	mcpRollToolsModuleName     = "roll-tools"
	mcpAnalysisToolsModuleName = "analysis-tools"
	mcpMetadataToolsModuleName = "metadata-tools"
)

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler)
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.RollTestInput, domain.RollTestResult](),
	newMCPToolRegistrar[domain.RollPoolInput, domain.RollPoolResult](),
	newMCPToolRegistrar[domain.AnalyzeTestInput, domain.AnalyzeTestResult](),
	newMCPToolRegistrar[domain.ExplainRollInput, domain.ExplainRollResult](),
	newMCPToolRegistrar[domain.RulesMetadataInput, domain.RulesMetadataResult](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

func newMCPRegistrationModules(env domain.Env) []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{
			name: mcpRollToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerRollTools(registrar, env)
			},
		},
		{
			name: mcpAnalysisToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerAnalysisTools(registrar, env)
			},
		},
		{
			name: mcpMetadataToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerTool(registrar, domain.RulesMetadataTool(), domain.RulesMetadataHandler(env))
			},
		},
	}
}
