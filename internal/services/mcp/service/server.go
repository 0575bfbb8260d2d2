package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/rollcheck/internal/core/evaluator"
	"github.com/louisbranch/rollcheck/internal/core/rulebook"
	"github.com/louisbranch/rollcheck/internal/services/mcp/domain"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "rollcheck"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
	// defaultHTTPAddr keeps HTTP transport on loopback unless configured.
	defaultHTTPAddr = "localhost:8081"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP runs MCP over streamable HTTP for remote clients.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Transport TransportKind
	HTTPAddr  string
	// Rulebook is an optional YAML rulebook of named checks and pools.
	Rulebook string
	// Locale selects the language of tool error messages.
	Locale string
	// Logger receives roll selection and cache logs when set.
	Logger *log.Logger
}

// Server hosts the MCP server and the evaluator shared by every tool call.
type Server struct {
	mcpServer *mcp.Server
	env       domain.Env
}

// New creates a configured MCP server, loading the rulebook when one is set.
func New(cfg Config) (*Server, error) {
	env := domain.Env{Locale: cfg.Locale, Logger: cfg.Logger}
	var opts []evaluator.Option
	if cfg.Logger != nil {
		opts = append(opts, evaluator.WithLogger(cfg.Logger))
	}
	env.Evaluator = evaluator.New(evaluator.NewCache(), opts...)

	if path := strings.TrimSpace(cfg.Rulebook); path != "" {
		book, err := rulebook.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load rulebook %s: %w", path, err)
		}
		env.Rulebook = book
	}
	return newServer(env)
}

// newServer binds tool handlers once; every session shares env.
func newServer(env domain.Env) (*Server, error) {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	for _, module := range newMCPRegistrationModules(env) {
		if err := module.register(mcpServerRegistrationAdapter{server: mcpServer}); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
	}
	return &Server{mcpServer: mcpServer, env: env}, nil
}

// CacheSize reports how many outcome maps the shared evaluator holds.
func (s *Server) CacheSize() int {
	if s == nil || s.env.Evaluator == nil {
		return 0
	}
	return s.env.Evaluator.Cache().Size()
}
