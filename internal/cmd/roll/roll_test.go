package roll

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/rollcheck/internal/core/check"
	"github.com/louisbranch/rollcheck/internal/core/dice"
	"github.com/louisbranch/rollcheck/internal/core/roller"
	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

func parse(t *testing.T, args ...string) Config {
	t.Helper()
	cfg, err := ParseConfig(flag.NewFlagSet("roll", flag.ContinueOnError), args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

func run(t *testing.T, cfg Config) (string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	if err := Run(context.Background(), cfg, &out, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	return out.String(), errOut.String()
}

func TestParseConfigDefaults(t *testing.T) {
	cfg := parse(t)
	if cfg.Die != "d20" || cfg.Mode != "normal" || cfg.Locale != "en-US" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.Seed != nil || cfg.Params != nil || cfg.NaturalCrit != "default" {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestParseConfigReadsEnvThenFlags(t *testing.T) {
	t.Setenv("ROLLCHECK_DIE", "d8")
	t.Setenv("ROLLCHECK_SEED", "99")
	t.Setenv("ROLLCHECK_MODE", "advantage")

	cfg := parse(t, "-mode", "dis")
	if cfg.Die != "d8" || cfg.Mode != "dis" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Seed == nil || *cfg.Seed != 99 {
		t.Fatalf("seed = %v", cfg.Seed)
	}

	cfg = parse(t, "-seed", "7")
	if *cfg.Seed != 7 {
		t.Fatalf("flag seed = %d", *cfg.Seed)
	}
}

func TestParseConfigCollectsOnlyGivenParams(t *testing.T) {
	cfg := parse(t, "-test", "skill", "-target", "0", "-crit-failure", "2", "-values", "1, 3,5")
	want := map[string]any{"target": 0, "critical_failure": 2, "values": []int{1, 3, 5}}
	if len(cfg.Params) != len(want) {
		t.Fatalf("params = %v", cfg.Params)
	}
	if cfg.Params["target"] != 0 || cfg.Params["critical_failure"] != 2 {
		t.Fatalf("params = %v", cfg.Params)
	}
	if got := cfg.Params["values"].([]int); len(got) != 3 || got[2] != 5 {
		t.Fatalf("values = %v", got)
	}
	if _, ok := cfg.Params["critical_success"]; ok {
		t.Fatal("unset flag should not produce a param")
	}
}

func TestParseConfigRejectsBadInput(t *testing.T) {
	tests := [][]string{
		{"-values", "1,x"},
		{"-seed", "abc"},
		{"-unknown"},
	}
	for _, args := range tests {
		fs := flag.NewFlagSet("roll", flag.ContinueOnError)
		fs.SetOutput(&bytes.Buffer{})
		if _, err := ParseConfig(fs, args); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestRunAnalyze(t *testing.T) {
	cfg := parse(t, "-test", "at_least", "-target", "15", "-analyze")
	out, _ := run(t, cfg)
	if !strings.Contains(out, "20 possible results on a d20") {
		t.Fatalf("output = %q", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header and four outcomes, got %q", out)
	}
	if !strings.HasPrefix(lines[3], "Success") || !strings.Contains(lines[3], "6") || !strings.Contains(lines[3], "30%") {
		t.Fatalf("success line = %q", lines[3])
	}
}

func TestRunAnalyzeModified(t *testing.T) {
	cfg := parse(t, "-die", "d6", "-test", "at_least", "-target", "15", "-modifier", "n + 10", "-analyze")
	out, _ := run(t, cfg)
	if !strings.Contains(out, "Achievable range: 11–16") {
		t.Fatalf("output = %q", out)
	}
}

func TestRunTestIsDeterministicWithSeed(t *testing.T) {
	cfg := parse(t, "-test", "at_least", "-target", "15", "-mode", "advantage", "-seed", "42", "-json")
	first, _ := run(t, cfg)
	second, _ := run(t, cfg)
	if first != second {
		t.Fatalf("same seed produced %q and %q", first, second)
	}

	var roll roller.TestRoll
	if err := json.Unmarshal([]byte(first), &roll); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if roll.Die != dice.D20 || roll.Mode != dice.ModeAdvantage || len(roll.Candidates) != 2 {
		t.Fatalf("roll = %+v", roll)
	}
	if roll.Outcome.IsSuccess() != (roll.Base >= 15) {
		t.Fatalf("base %d judged %v", roll.Base, roll.Outcome)
	}
}

func TestRunTestText(t *testing.T) {
	cfg := parse(t, "-die", "d6", "-test", "at_least", "-target", "1", "-seed", "3")
	out, _ := run(t, cfg)
	if !strings.HasPrefix(out, "Rolled ") || !strings.Contains(out, "on a d6") {
		t.Fatalf("output = %q", out)
	}
	if !strings.Contains(out, "Outcome: Success") {
		t.Fatalf("at_least 1 must succeed: %q", out)
	}
}

func TestRunTestLocalized(t *testing.T) {
	cfg := parse(t, "-die", "d6", "-test", "at_most", "-target", "6", "-seed", "3", "-locale", "pt-BR")
	out, _ := run(t, cfg)
	if !strings.Contains(out, "Resultado: Sucesso") {
		t.Fatalf("output = %q", out)
	}
}

func TestRunRawRollWithModifier(t *testing.T) {
	cfg := parse(t, "-die", "d6", "-modifier", "n + 100", "-seed", "5", "-json")
	out, _ := run(t, cfg)
	var roll roller.ModifiedRoll
	if err := json.Unmarshal([]byte(out), &roll); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if roll.Modified != roll.Base+100 || roll.Base < 1 || roll.Base > 6 {
		t.Fatalf("roll = %+v", roll)
	}
}

func TestRunRawRollText(t *testing.T) {
	cfg := parse(t, "-die", "d4", "-mode", "disadvantage", "-seed", "5")
	out, _ := run(t, cfg)
	if !strings.Contains(out, "on a d4") || !strings.Contains(out, "Candidates: [") {
		t.Fatalf("output = %q", out)
	}
}

func TestRunExplain(t *testing.T) {
	cfg := parse(t, "-test", "skill", "-target", "11", "-crit-success", "19", "-crit-failure", "3", "-explain", "20")
	out, _ := run(t, cfg)
	if !strings.Contains(out, "ROLL_BASE") || !strings.Contains(out, "SELECT_OUTCOME") {
		t.Fatalf("output = %q", out)
	}
	if !strings.Contains(out, "Outcome: Critical success") {
		t.Fatalf("output = %q", out)
	}
}

func TestRunPoolFromRulebook(t *testing.T) {
	doc := "pools:\n  - name: triples\n    die: d6\n    count: 3\n    rules:\n      - {kind: value_count, value: 6, op: at_least, count: 0}\n"
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := parse(t, "-rulebook", path, "-pool", "triples", "-seed", "8")
	out, _ := run(t, cfg)
	if !strings.HasPrefix(out, "Rolled [") || !strings.Contains(out, "Passed: true") {
		t.Fatalf("output = %q", out)
	}
}

func TestRunCheckFromRulebook(t *testing.T) {
	doc := "checks:\n  - name: sure\n    die: d10\n    test: within\n    params: {min: 1, max: 10}\n"
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := parse(t, "-rulebook", path, "-check", "sure", "-json")
	out, _ := run(t, cfg)
	var roll roller.TestRoll
	if err := json.Unmarshal([]byte(out), &roll); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if roll.Die != dice.D10 || roll.Outcome != check.OutcomeSuccess {
		t.Fatalf("roll = %+v", roll)
	}
}

func TestRunVerboseLogsSeed(t *testing.T) {
	cfg := parse(t, "-seed", "12", "-verbose", "-test", "exact", "-target", "3")
	_, errOut := run(t, cfg)
	if !strings.Contains(errOut, "seed 12 (generated: false)") {
		t.Fatalf("log = %q", errOut)
	}
	if !strings.Contains(errOut, "outcome map built") {
		t.Fatalf("log = %q", errOut)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code apperrors.Code
	}{
		{name: "unknown die", args: []string{"-die", "d7"}, code: apperrors.CodeShapeUnknownDie},
		{name: "target off the die", args: []string{"-die", "d6", "-test", "exact", "-target", "7"}, code: apperrors.CodeRangeTarget},
		{name: "missing target", args: []string{"-test", "at_least"}, code: apperrors.CodeShapeMissingField},
		{name: "unknown mode", args: []string{"-mode", "sideways"}, code: apperrors.CodeShapeUnknownRollMode},
		{name: "explain off the die", args: []string{"-die", "d6", "-test", "exact", "-target", "2", "-explain", "9"}, code: apperrors.CodeRangeRoll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Run(context.Background(), parse(t, tt.args...), nil, nil)
			if !apperrors.IsCode(err, tt.code) {
				t.Fatalf("error = %v (%s), want %s", err, apperrors.GetCode(err), tt.code)
			}
		})
	}
}

func TestRunRejectsIncompleteRequests(t *testing.T) {
	tests := [][]string{
		{"-analyze"},
		{"-check", "stealth"},
		{"-pool", "triples"},
		{"-check", "a", "-test", "exact"},
	}
	for _, args := range tests {
		if err := Run(context.Background(), parse(t, args...), nil, nil); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := dice.UnknownKindError("d7")
	if got := ErrorMessage(err, "en-US"); got != "Error: unknown die d7" {
		t.Fatalf("en-US = %q", got)
	}
	if got := ErrorMessage(err, "pt-BR"); !strings.HasPrefix(got, "Erro: ") {
		t.Fatalf("pt-BR = %q", got)
	}
}
