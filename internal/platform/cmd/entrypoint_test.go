package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	Die  string `env:"CMD_TEST_DIE" envDefault:"d20"`
	Mode string `env:"CMD_TEST_MODE" envDefault:"normal"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("ROLLCHECK_CMD_TEST_DIE", "d8")
	t.Setenv("ROLLCHECK_CMD_TEST_MODE", "advantage")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfgRef := testConfig{}
	if err := ParseConfig(&cfgRef); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfgRef.Die, "die", cfgRef.Die, "die")
	fs.StringVar(&cfgRef.Mode, "mode", cfgRef.Mode, "mode")

	if err := ParseArgs(fs, []string{"-die", "d12"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfgRef.Die != "d12" {
		t.Fatalf("expected flag value for die, got %q", cfgRef.Die)
	}
	if cfgRef.Mode != "advantage" {
		t.Fatalf("expected env default mode, got %q", cfgRef.Mode)
	}
}

func TestParseConfigFromArgsReadsEnvAndFlags(t *testing.T) {
	t.Setenv("ROLLCHECK_CMD_TEST_DIE", "d10")
	t.Setenv("ROLLCHECK_CMD_TEST_MODE", "disadvantage")

	cfgRef := testConfig{}
	fs := flag.NewFlagSet("configargs", flag.ContinueOnError)
	fs.StringVar(&cfgRef.Die, "die", "", "die")
	fs.StringVar(&cfgRef.Mode, "mode", "", "mode")
	if err := ParseConfigFromArgs(&cfgRef, fs, []string{"-die", "d4"}); err != nil {
		t.Fatalf("parse config and args: %v", err)
	}
	if cfgRef.Die != "d4" {
		t.Fatalf("expected parsed flag die, got %q", cfgRef.Die)
	}
	if cfgRef.Mode != "disadvantage" {
		t.Fatalf("expected env default mode, got %q", cfgRef.Mode)
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(nil, "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(nil, ServiceRoll, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryRunsAndReturnsError(t *testing.T) {
	t.Setenv("ROLLCHECK_OTEL_ENABLED", "false")
	want := errors.New("boom")
	called := false
	err := RunWithTelemetry(context.Background(), ServiceRoll, func(context.Context) error {
		called = true
		return want
	})
	if !called {
		t.Fatal("expected run function to be called")
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected run error, got %v", err)
	}
}
