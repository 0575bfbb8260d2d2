// Package roll implements the roll command: rolls, distribution analysis,
// explanations and dice pools from the shell.
package roll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/louisbranch/rollcheck/internal/core/check"
	"github.com/louisbranch/rollcheck/internal/core/dice"
	"github.com/louisbranch/rollcheck/internal/core/evaluator"
	"github.com/louisbranch/rollcheck/internal/core/modifier"
	"github.com/louisbranch/rollcheck/internal/core/probability"
	"github.com/louisbranch/rollcheck/internal/core/roller"
	"github.com/louisbranch/rollcheck/internal/core/rulebook"
	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
	"github.com/louisbranch/rollcheck/internal/platform/i18n/catalog"
	"github.com/louisbranch/rollcheck/internal/random"
)

// runner carries the per-invocation collaborators.
type runner struct {
	cfg       Config
	out       io.Writer
	printer   *message.Printer
	logger    *log.Logger
	evaluator *evaluator.Evaluator
	book      *rulebook.Rulebook
}

// Run executes the roll command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	r := &runner{cfg: cfg, out: out, printer: catalog.Printer(cfg.Locale)}
	var opts []evaluator.Option
	if cfg.Verbose {
		r.logger = log.New(errOut, "", 0)
		opts = append(opts, evaluator.WithLogger(r.logger))
	}
	r.evaluator = evaluator.New(evaluator.NewCache(), opts...)

	if path := strings.TrimSpace(cfg.Rulebook); path != "" {
		book, err := rulebook.Load(path)
		if err != nil {
			return err
		}
		r.book = book
	}

	if cfg.Pool != "" {
		return r.rollPool(ctx)
	}

	c, ok, err := r.resolveCheck()
	if err != nil {
		return err
	}
	if !ok {
		if cfg.Analyze || cfg.Explain != 0 {
			return errors.New("-analyze and -explain need a test (-test or -check)")
		}
		return r.rollRaw(ctx)
	}
	switch {
	case cfg.Analyze:
		return r.analyze(c)
	case cfg.Explain != 0:
		return r.explain(c)
	default:
		return r.rollTest(ctx, c)
	}
}

// ErrorMessage renders err for the terminal in the configured locale.
func ErrorMessage(err error, locale string) string {
	return catalog.Printer(locale).Sprintf("cli.error", apperrors.UserMessage(err, locale))
}

// resolveCheck returns the rulebook or flag-defined check; ok is false when
// neither -check nor -test was given.
func (r *runner) resolveCheck() (rulebook.Check, bool, error) {
	switch {
	case r.cfg.Check != "" && r.cfg.Test != "":
		return rulebook.Check{}, false, errors.New("-check and -test are mutually exclusive")
	case r.cfg.Check != "":
		if r.book == nil {
			return rulebook.Check{}, false, errors.New("-check needs -rulebook")
		}
		c, err := r.book.Check(r.cfg.Check)
		return c, err == nil, err
	case r.cfg.Test != "":
		c, err := rulebook.BuildCheck(rulebook.CheckSpec{
			Die:         r.cfg.Die,
			Test:        r.cfg.Test,
			Params:      r.cfg.Params,
			Modifier:    r.cfg.Modifier,
			ModifierLua: r.cfg.ModifierLua,
			NaturalCrit: r.cfg.NaturalCrit,
		})
		return c, err == nil, err
	default:
		return rulebook.Check{}, false, nil
	}
}

func (r *runner) roller() (*roller.Roller, error) {
	seed, generated, err := random.ResolveSeed(r.cfg.Seed)
	if err != nil {
		return nil, err
	}
	r.logf("seed %d (generated: %t)", seed, generated)
	opts := []roller.Option{roller.WithEvaluator(r.evaluator)}
	if r.logger != nil {
		opts = append(opts, roller.WithLogger(r.logger))
	}
	return roller.New(dice.NewSeededSource(seed), opts...), nil
}

func (r *runner) rollRaw(ctx context.Context) error {
	die, err := dice.ParseKind(r.cfg.Die)
	if err != nil {
		return err
	}
	mode, err := dice.ParseRollMode(r.cfg.Mode)
	if err != nil {
		return err
	}
	mod, err := r.modifier()
	if err != nil {
		return err
	}
	rl, err := r.roller()
	if err != nil {
		return err
	}

	if mod == nil {
		roll, err := rl.Roll(ctx, die, mode)
		if err != nil {
			return err
		}
		if r.cfg.JSONOutput {
			return r.writeJSON(roll)
		}
		r.println("cli.roll.base", roll.Value, die)
		if len(roll.Candidates) > 1 {
			r.println("cli.roll.candidates", roll.Candidates, mode)
		}
		return nil
	}

	roll, err := rl.RollWithModifier(ctx, die, mod, mode)
	if err != nil {
		return err
	}
	if r.cfg.JSONOutput {
		return r.writeJSON(roll)
	}
	r.println("cli.roll.modified", roll.Base, die, roll.Modified)
	if len(roll.Candidates) > 1 {
		values := make([]int, len(roll.Candidates))
		for i, c := range roll.Candidates {
			values[i] = c.Modified
		}
		r.println("cli.roll.candidates", values, mode)
	}
	return nil
}

func (r *runner) modifier() (*modifier.Modifier, error) {
	switch {
	case r.cfg.Modifier != "" && r.cfg.ModifierLua != "":
		return nil, errors.New("-modifier and -modifier-lua are mutually exclusive")
	case r.cfg.Modifier != "":
		return modifier.FromExpression(r.cfg.Modifier)
	case r.cfg.ModifierLua != "":
		return modifier.FromLuaFile(r.cfg.ModifierLua)
	default:
		return nil, nil
	}
}

func (r *runner) rollTest(ctx context.Context, c rulebook.Check) error {
	mode, err := dice.ParseRollMode(r.cfg.Mode)
	if err != nil {
		return err
	}
	rl, err := r.roller()
	if err != nil {
		return err
	}

	opts := roller.Options{Policy: c.Policy}
	var roll roller.TestRoll
	if c.Modifier != nil {
		roll, err = rl.RollAgainstModifiedTest(ctx, c.Die, c.Modifier, c.Conditions, mode, opts)
	} else {
		roll, err = rl.RollAgainstTest(ctx, c.Die, c.Conditions, mode, opts)
	}
	if err != nil {
		return err
	}
	if r.cfg.JSONOutput {
		return r.writeJSON(roll)
	}

	if c.Modifier != nil {
		r.println("cli.roll.modified", roll.Base, roll.Die, roll.Modified)
	} else {
		r.println("cli.roll.base", roll.Base, roll.Die)
	}
	if len(roll.Candidates) > 1 {
		bases := make([]int, len(roll.Candidates))
		for i, candidate := range roll.Candidates {
			bases[i] = candidate.Base
		}
		r.println("cli.roll.candidates", bases, roll.Mode)
	}
	r.println("cli.roll.outcome", r.outcomeLabel(roll.Outcome))
	return nil
}

func (r *runner) analyze(c rulebook.Check) error {
	if c.Modifier != nil {
		report, err := probability.AnalyzeModifiedTest(r.evaluator, c.Die, c.Modifier, c.Conditions, c.Policy)
		if err != nil {
			return err
		}
		if r.cfg.JSONOutput {
			return r.writeJSON(report)
		}
		r.printReport(report.Report)
		r.println("cli.analyze.range", report.AchievableRange.Min, report.AchievableRange.Max)
		return nil
	}

	report, err := probability.AnalyzeTest(r.evaluator, c.Die, c.Conditions, c.Policy)
	if err != nil {
		return err
	}
	if r.cfg.JSONOutput {
		return r.writeJSON(report)
	}
	r.printReport(report)
	return nil
}

func (r *runner) printReport(report probability.Report) {
	r.println("cli.analyze.total", report.TotalPossibilities, report.Die)
	for _, oc := range report.Outcomes {
		r.println("cli.analyze.outcome", r.outcomeLabel(oc.Outcome), oc.Count, number.Percent(oc.Probability))
	}
}

func (r *runner) explain(c rulebook.Check) error {
	result, err := r.evaluator.Explain(c.Die, c.Conditions, c.Modifier, c.Policy, r.cfg.Explain)
	if err != nil {
		return err
	}
	if r.cfg.JSONOutput {
		return r.writeJSON(result)
	}
	for _, step := range result.Steps {
		fmt.Fprintf(r.out, "%-16s %s\n", step.Code, step.Message)
	}
	r.println("cli.roll.outcome", r.outcomeLabel(result.Entry.Outcome))
	return nil
}

func (r *runner) rollPool(ctx context.Context) error {
	if r.book == nil {
		return errors.New("-pool needs -rulebook")
	}
	pool, err := r.book.Pool(r.cfg.Pool)
	if err != nil {
		return err
	}
	rl, err := r.roller()
	if err != nil {
		return err
	}
	roll, err := rl.RollPool(ctx, pool.Die, pool.Conditions)
	if err != nil {
		return err
	}
	if r.cfg.JSONOutput {
		return r.writeJSON(roll)
	}

	r.println("cli.pool.values", roll.Base.Values, roll.Base.Sum)
	for _, rule := range roll.Result.RuleResults {
		r.println("cli.pool.rule", rule.Index, rule.Count, rule.Passed)
	}
	r.println("cli.pool.passed", roll.Result.Passed)
	return nil
}

func (r *runner) outcomeLabel(o check.Outcome) string {
	return r.printer.Sprintf("core.outcome." + o.Key())
}

func (r *runner) println(key string, args ...any) {
	fmt.Fprintln(r.out, r.printer.Sprintf(key, args...))
}

func (r *runner) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func (r *runner) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
