package roll

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	platformcmd "github.com/louisbranch/rollcheck/internal/platform/cmd"
)

// Config holds roll command configuration.
type Config struct {
	Die      string `env:"DIE" envDefault:"d20"`
	Mode     string `env:"MODE" envDefault:"normal"`
	Seed     *int64 `env:"SEED"`
	Locale   string `env:"LOCALE" envDefault:"en-US"`
	Verbose  bool   `env:"VERBOSE"`
	Rulebook string `env:"RULEBOOK"`

	// Check names a rulebook check; Test builds one from flags instead.
	Check       string
	Test        string
	Params      map[string]any
	Modifier    string
	ModifierLua string
	NaturalCrit string

	Analyze    bool
	Explain    int
	Pool       string
	JSONOutput bool
}

// paramFlags maps test parameter flags to their parameter names.
var paramFlags = map[string]string{
	"target":       "target",
	"min":          "min",
	"max":          "max",
	"crit-success": "critical_success",
	"crit-failure": "critical_failure",
}

// ParseConfig loads ROLLCHECK_ environment defaults and then parses flags.
// Only test parameter flags given on the command line end up in Params.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Die, "die", cfg.Die, "die to roll: d4, d6, d8, d10, d12, d20 or d100")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "roll mode: normal, advantage or disadvantage")
	fs.Func("seed", "seed for deterministic rolls", func(value string) error {
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed %q", value)
		}
		cfg.Seed = &seed
		return nil
	})
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for output and error messages")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log seeds, cache hits and selections to stderr")
	fs.StringVar(&cfg.Rulebook, "rulebook", cfg.Rulebook, "YAML rulebook of named checks and pools")

	fs.StringVar(&cfg.Check, "check", "", "rulebook check to roll against")
	fs.StringVar(&cfg.Test, "test", "", "test kind: exact, at_least, at_most, within, in_list or skill")
	targets := make(map[string]*int, len(paramFlags))
	for name := range paramFlags {
		targets[name] = fs.Int(name, 0, name+" parameter of the test")
	}
	values := fs.String("values", "", "comma-separated values for in_list tests")
	fs.StringVar(&cfg.Modifier, "modifier", "", "CEL expression over n applied to each roll, e.g. \"n + 3\"")
	fs.StringVar(&cfg.ModifierLua, "modifier-lua", "", "Lua script defining modify(n)")
	fs.StringVar(&cfg.NaturalCrit, "natural-crit", "default", "natural crit policy: default, on or off")

	fs.BoolVar(&cfg.Analyze, "analyze", false, "print the outcome distribution instead of rolling")
	fs.IntVar(&cfg.Explain, "explain", 0, "explain how this face is judged instead of rolling")
	fs.StringVar(&cfg.Pool, "pool", "", "rulebook pool to roll")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output JSON")

	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		if parseErr != nil {
			return
		}
		if param, ok := paramFlags[f.Name]; ok {
			if cfg.Params == nil {
				cfg.Params = map[string]any{}
			}
			cfg.Params[param] = *targets[f.Name]
			return
		}
		if f.Name == "values" {
			list, err := parseValues(*values)
			if err != nil {
				parseErr = err
				return
			}
			if cfg.Params == nil {
				cfg.Params = map[string]any{}
			}
			cfg.Params["values"] = list
		}
	})
	if parseErr != nil {
		return Config{}, parseErr
	}
	return cfg, nil
}

func parseValues(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q in -values", part)
		}
		out = append(out, n)
	}
	return out, nil
}
