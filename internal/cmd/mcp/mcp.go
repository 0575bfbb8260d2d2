// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"io"
	"log"

	platformcmd "github.com/louisbranch/rollcheck/internal/platform/cmd"
	"github.com/louisbranch/rollcheck/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	HTTPAddr  string `env:"MCP_HTTP_ADDR" envDefault:"localhost:8081"`
	Transport string `env:"MCP_TRANSPORT" envDefault:"stdio"`
	Rulebook  string `env:"RULEBOOK"`
	Locale    string `env:"LOCALE" envDefault:"en-US"`
	Verbose   bool   `env:"VERBOSE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.Rulebook, "rulebook", cfg.Rulebook, "YAML rulebook of named checks and pools")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for tool error messages")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Log cache hits and roll selection to stderr")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP server. Logs go to errOut because stdout carries the
// stdio transport.
func Run(ctx context.Context, cfg Config, errOut io.Writer) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceMCP, func(ctx context.Context) error {
		serviceCfg := service.Config{
			Transport: service.TransportKind(cfg.Transport),
			HTTPAddr:  cfg.HTTPAddr,
			Rulebook:  cfg.Rulebook,
			Locale:    cfg.Locale,
		}
		if cfg.Verbose {
			serviceCfg.Logger = log.New(errOut, "[MCP] ", 0)
		}
		return service.Run(ctx, serviceCfg)
	})
}
