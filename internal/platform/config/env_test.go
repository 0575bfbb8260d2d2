package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Die     string `env:"TEST_DIE" envDefault:"d20"`
	Seed    int64  `env:"TEST_SEED"`
	Verbose bool   `env:"TEST_VERBOSE"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Die != "d20" {
		t.Fatalf("expected default die d20, got %q", cfg.Die)
	}
}

func TestParseEnvUsesPrefix(t *testing.T) {
	t.Setenv("ROLLCHECK_TEST_DIE", "d6")
	t.Setenv("ROLLCHECK_TEST_SEED", "42")
	t.Setenv("TEST_VERBOSE", "true")

	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Die != "d6" || cfg.Seed != 42 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Verbose {
		t.Fatal("unprefixed variable should be ignored")
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("ROLLCHECK_TEST_SEED", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
