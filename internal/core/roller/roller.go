// Package roller draws faces from a random source and evaluates them through
// outcome maps, including advantage and disadvantage selection.
//
// Advantage and disadvantage against a test are decided by outcome rank,
// never by raw face: both candidates are fully evaluated (natural crits
// included) and then compared.
package roller

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/rollcheck/internal/core/aggregate"
	"github.com/louisbranch/rollcheck/internal/core/check"
	"github.com/louisbranch/rollcheck/internal/core/dice"
	"github.com/louisbranch/rollcheck/internal/core/evaluator"
	"github.com/louisbranch/rollcheck/internal/core/modifier"
)

const tracerName = "github.com/louisbranch/rollcheck/internal/core/roller"

// Option configures a Roller.
type Option func(*Roller)

// WithEvaluator shares an evaluator (and its cache) with the roller.
func WithEvaluator(e *evaluator.Evaluator) Option {
	return func(r *Roller) { r.evaluator = e }
}

// WithLogger logs selection decisions.
func WithLogger(logger *log.Logger) Option {
	return func(r *Roller) { r.logger = logger }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Roller) { r.tracer = tracer }
}

// Roller ties a random source to outcome evaluation.
type Roller struct {
	source    dice.Source
	evaluator *evaluator.Evaluator
	tracer    trace.Tracer
	logger    *log.Logger
}

// New returns a roller drawing from source, which must not be nil.
func New(source dice.Source, opts ...Option) *Roller {
	r := &Roller{source: source}
	for _, opt := range opts {
		opt(r)
	}
	if r.evaluator == nil {
		r.evaluator = evaluator.New(evaluator.NewCache())
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(tracerName)
	}
	return r
}

// Evaluator returns the evaluator used for outcome maps.
func (r *Roller) Evaluator() *evaluator.Evaluator {
	return r.evaluator
}

// Options tune a test roll.
type Options struct {
	Policy check.CritPolicy
}

// RawRoll is a raw face roll.
type RawRoll struct {
	Die        dice.Kind     `json:"die"`
	Mode       dice.RollMode `json:"mode"`
	Value      int           `json:"value"`
	Candidates []int         `json:"candidates"`
}

// Candidate is one evaluated draw.
type Candidate struct {
	Base        int           `json:"base"`
	Modified    int           `json:"modified"`
	Outcome     check.Outcome `json:"outcome,omitempty"`
	NaturalCrit bool          `json:"natural_crit,omitempty"`
}

// ModifiedRoll is a face and its modified value.
type ModifiedRoll struct {
	Die        dice.Kind     `json:"die"`
	Mode       dice.RollMode `json:"mode"`
	Base       int           `json:"base"`
	Modified   int           `json:"modified"`
	Candidates []Candidate   `json:"candidates"`
	Selected   int           `json:"selected"`
}

// TestRoll is a roll judged against a test.
type TestRoll struct {
	Die         dice.Kind     `json:"die"`
	Mode        dice.RollMode `json:"mode"`
	Base        int           `json:"base"`
	Modified    int           `json:"modified"`
	Outcome     check.Outcome `json:"outcome"`
	NaturalCrit bool          `json:"natural_crit"`
	Candidates  []Candidate   `json:"candidates"`
	// Selected is the index of the kept candidate.
	Selected int `json:"selected"`
}

// PoolValues are the raw faces of a pool roll.
type PoolValues struct {
	Values []int `json:"values"`
	Sum    int   `json:"sum"`
}

// PoolRoll is a pool roll and its aggregate evaluation.
type PoolRoll struct {
	Die    dice.Kind        `json:"die"`
	Base   PoolValues       `json:"base"`
	Result aggregate.Result `json:"result"`
}

// Roll draws a raw face. Advantage keeps the higher face and disadvantage the
// lower; ties keep the first draw.
func (r *Roller) Roll(ctx context.Context, die dice.Kind, mode dice.RollMode) (RawRoll, error) {
	_, span := r.start(ctx, "roller.Roll", die, mode)
	defer span.End()

	if err := validate(die, mode); err != nil {
		return RawRoll{}, fail(span, err)
	}
	candidates := r.draw(die, mode)
	selected := selectByValue(mode, candidates)
	span.SetAttributes(attribute.Int("roll.base", candidates[selected]))
	return RawRoll{Die: die, Mode: normalize(mode), Value: candidates[selected], Candidates: candidates}, nil
}

// RollWithModifier draws a face and applies mod. Advantage and disadvantage
// compare modified values; ties keep the first draw.
func (r *Roller) RollWithModifier(ctx context.Context, die dice.Kind, mod *modifier.Modifier, mode dice.RollMode) (ModifiedRoll, error) {
	_, span := r.start(ctx, "roller.RollWithModifier", die, mode)
	defer span.End()
	span.SetAttributes(attribute.String("roll.modifier", mod.Key()))

	if err := validate(die, mode); err != nil {
		return ModifiedRoll{}, fail(span, err)
	}
	faces := r.draw(die, mode)
	candidates := make([]Candidate, len(faces))
	values := make([]int, len(faces))
	for i, base := range faces {
		modified, err := mod.Apply(base)
		if err != nil {
			return ModifiedRoll{}, fail(span, err)
		}
		candidates[i] = Candidate{Base: base, Modified: modified}
		values[i] = modified
	}
	selected := selectByValue(mode, values)
	kept := candidates[selected]
	span.SetAttributes(attribute.Int("roll.base", kept.Base), attribute.Int("roll.modified", kept.Modified))
	return ModifiedRoll{
		Die:        die,
		Mode:       normalize(mode),
		Base:       kept.Base,
		Modified:   kept.Modified,
		Candidates: candidates,
		Selected:   selected,
	}, nil
}

// RollAgainstTest draws a face and judges it against cond.
func (r *Roller) RollAgainstTest(ctx context.Context, die dice.Kind, cond check.Conditions, mode dice.RollMode, opts Options) (TestRoll, error) {
	ctx, span := r.start(ctx, "roller.RollAgainstTest", die, mode)
	defer span.End()
	roll, err := r.rollTest(ctx, die, nil, cond, mode, opts)
	if err != nil {
		return TestRoll{}, fail(span, err)
	}
	annotate(span, roll)
	return roll, nil
}

// RollAgainstModifiedTest draws a face, applies mod and judges the result
// against cond. Natural crits still look at the raw face.
func (r *Roller) RollAgainstModifiedTest(ctx context.Context, die dice.Kind, mod *modifier.Modifier, cond check.Conditions, mode dice.RollMode, opts Options) (TestRoll, error) {
	ctx, span := r.start(ctx, "roller.RollAgainstModifiedTest", die, mode)
	defer span.End()
	span.SetAttributes(attribute.String("roll.modifier", mod.Key()))
	roll, err := r.rollTest(ctx, die, mod, cond, mode, opts)
	if err != nil {
		return TestRoll{}, fail(span, err)
	}
	annotate(span, roll)
	return roll, nil
}

func (r *Roller) rollTest(_ context.Context, die dice.Kind, mod *modifier.Modifier, cond check.Conditions, mode dice.RollMode, opts Options) (TestRoll, error) {
	if err := validate(die, mode); err != nil {
		return TestRoll{}, err
	}
	m, err := r.evaluator.Build(die, cond, mod, opts.Policy)
	if err != nil {
		return TestRoll{}, err
	}

	faces := r.draw(die, mode)
	candidates := make([]Candidate, len(faces))
	for i, base := range faces {
		entry, err := m.Lookup(base)
		if err != nil {
			return TestRoll{}, err
		}
		candidates[i] = Candidate{
			Base:        entry.Base,
			Modified:    entry.Modified,
			Outcome:     entry.Outcome,
			NaturalCrit: entry.NaturalCrit,
		}
	}

	selected := 0
	if len(candidates) == 2 {
		selected = SelectByRank(mode, candidates[0].Outcome, candidates[1].Outcome)
		r.logf("%s on %s: %s (%d) vs %s (%d), kept #%d",
			mode, die, candidates[0].Outcome.Key(), candidates[0].Base,
			candidates[1].Outcome.Key(), candidates[1].Base, selected+1)
	}
	kept := candidates[selected]
	return TestRoll{
		Die:         die,
		Mode:        normalize(mode),
		Base:        kept.Base,
		Modified:    kept.Modified,
		Outcome:     kept.Outcome,
		NaturalCrit: kept.NaturalCrit,
		Candidates:  candidates,
		Selected:    selected,
	}, nil
}

// RollPool rolls pool.DiceCount() faces of die and evaluates them.
func (r *Roller) RollPool(ctx context.Context, die dice.Kind, pool aggregate.Conditions) (PoolRoll, error) {
	_, span := r.start(ctx, "roller.RollPool", die, dice.ModeNormal)
	defer span.End()
	span.SetAttributes(attribute.Int("pool.count", pool.DiceCount()))

	if err := die.Validate(); err != nil {
		return PoolRoll{}, fail(span, err)
	}
	if pool.Die() != die {
		return PoolRoll{}, fail(span, dice.ErrInvalidDiceSpec)
	}
	result, err := dice.RollWithSource(r.source, []dice.Spec{{Kind: die, Count: pool.DiceCount()}})
	if err != nil {
		return PoolRoll{}, fail(span, fmt.Errorf("roll pool: %w", err))
	}
	values := result.Rolls[0].Results
	evaluated, err := pool.Evaluate(r.evaluator, values)
	if err != nil {
		return PoolRoll{}, fail(span, err)
	}
	span.SetAttributes(attribute.Int("pool.sum", result.Total), attribute.Bool("pool.passed", evaluated.Passed))
	return PoolRoll{
		Die:    die,
		Base:   PoolValues{Values: values, Sum: result.Total},
		Result: evaluated,
	}, nil
}

// SelectByRank returns the index (0 or 1) of the candidate kept by mode.
// Advantage keeps the first when rank1 >= rank2; disadvantage keeps the first
// when rank1 <= rank2. Normal always keeps the first.
func SelectByRank(mode dice.RollMode, first, second check.Outcome) int {
	switch mode {
	case dice.ModeAdvantage:
		if first.Rank() >= second.Rank() {
			return 0
		}
		return 1
	case dice.ModeDisadvantage:
		if first.Rank() <= second.Rank() {
			return 0
		}
		return 1
	default:
		return 0
	}
}

func selectByValue(mode dice.RollMode, values []int) int {
	if len(values) < 2 {
		return 0
	}
	switch mode {
	case dice.ModeAdvantage:
		if values[0] >= values[1] {
			return 0
		}
		return 1
	case dice.ModeDisadvantage:
		if values[0] <= values[1] {
			return 0
		}
		return 1
	default:
		return 0
	}
}

func (r *Roller) draw(die dice.Kind, mode dice.RollMode) []int {
	faces := make([]int, mode.Draws())
	for i := range faces {
		faces[i] = dice.Face(r.source, die.Sides())
	}
	return faces
}

func (r *Roller) start(ctx context.Context, name string, die dice.Kind, mode dice.RollMode) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("roll.die", die.String()),
		attribute.String("roll.mode", string(normalize(mode))),
	))
}

func annotate(span trace.Span, roll TestRoll) {
	span.SetAttributes(
		attribute.Int("roll.base", roll.Base),
		attribute.Int("roll.modified", roll.Modified),
		attribute.String("roll.outcome", roll.Outcome.Key()),
		attribute.Bool("roll.natural_crit", roll.NaturalCrit),
	)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func validate(die dice.Kind, mode dice.RollMode) error {
	if err := die.Validate(); err != nil {
		return err
	}
	return mode.Validate()
}

func normalize(mode dice.RollMode) dice.RollMode {
	if mode == "" {
		return dice.ModeNormal
	}
	return mode
}

func (r *Roller) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
