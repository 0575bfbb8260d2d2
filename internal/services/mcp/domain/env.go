package domain

import (
	"errors"
	"log"
	"strings"

	"golang.org/x/text/message"

	"github.com/louisbranch/rollcheck/internal/core/check"
	"github.com/louisbranch/rollcheck/internal/core/dice"
	"github.com/louisbranch/rollcheck/internal/core/evaluator"
	"github.com/louisbranch/rollcheck/internal/core/roller"
	"github.com/louisbranch/rollcheck/internal/core/rulebook"
	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
	"github.com/louisbranch/rollcheck/internal/platform/i18n/catalog"
	"github.com/louisbranch/rollcheck/internal/random"
)

const (
	seedSourceClient = "CLIENT"
	seedSourceServer = "SERVER"
)

// Env holds what tool handlers share across calls.
type Env struct {
	// Evaluator memoizes outcome maps for every call.
	Evaluator *evaluator.Evaluator
	// Rulebook resolves named checks and pools; nil allows inline definitions only.
	Rulebook *rulebook.Rulebook
	// Locale selects the language of error messages and outcome labels.
	Locale string
	// Logger receives roll selection logs when set.
	Logger *log.Logger
}

// RngRequest represents optional RNG configuration for deterministic rolls.
type RngRequest struct {
	Seed *int64 `json:"seed,omitempty" jsonschema:"optional seed for deterministic rolls"`
}

// RngResult represents RNG details used for a roll.
type RngResult struct {
	SeedUsed   int64  `json:"seed_used" jsonschema:"seed value used by the server"`
	SeedSource string `json:"seed_source" jsonschema:"seed source (CLIENT or SERVER)"`
}

// roller returns a roller seeded from rng, sharing the env's evaluator.
func (e Env) roller(rng *RngRequest) (*roller.Roller, RngResult, error) {
	var requested *int64
	if rng != nil {
		requested = rng.Seed
	}
	seed, generated, err := random.ResolveSeed(requested)
	if err != nil {
		return nil, RngResult{}, err
	}
	source := seedSourceClient
	if generated {
		source = seedSourceServer
	}
	opts := []roller.Option{roller.WithEvaluator(e.evaluator())}
	if e.Logger != nil {
		opts = append(opts, roller.WithLogger(e.Logger))
	}
	return roller.New(dice.NewSeededSource(seed), opts...), RngResult{SeedUsed: seed, SeedSource: source}, nil
}

func (e Env) evaluator() *evaluator.Evaluator {
	if e.Evaluator == nil {
		return evaluator.New(nil)
	}
	return e.Evaluator
}

func (e Env) printer() *message.Printer {
	return catalog.Printer(e.Locale)
}

// outcomeLabel localizes an outcome through the core catalog.
func (e Env) outcomeLabel(o check.Outcome) string {
	return e.printer().Sprintf("core.outcome." + o.Key())
}

// resolveCheck picks the named rulebook check or builds the inline one.
func (e Env) resolveCheck(name string, definition *rulebook.CheckSpec) (rulebook.Check, error) {
	name = strings.TrimSpace(name)
	switch {
	case name != "" && definition != nil:
		return rulebook.Check{}, errors.New("check and definition are mutually exclusive")
	case name != "":
		if e.Rulebook == nil {
			return rulebook.Check{}, errors.New("no rulebook is loaded")
		}
		return e.Rulebook.Check(name)
	case definition != nil:
		if definition.ModifierLua != "" {
			return rulebook.Check{}, errors.New("modifier_lua is only available in rulebooks")
		}
		return rulebook.BuildCheck(*definition)
	default:
		return rulebook.Check{}, errors.New("check or definition is required")
	}
}

// resolvePool picks the named rulebook pool or builds the inline one.
func (e Env) resolvePool(name string, definition *rulebook.PoolSpec) (rulebook.Pool, error) {
	name = strings.TrimSpace(name)
	switch {
	case name != "" && definition != nil:
		return rulebook.Pool{}, errors.New("pool and definition are mutually exclusive")
	case name != "":
		if e.Rulebook == nil {
			return rulebook.Pool{}, errors.New("no rulebook is loaded")
		}
		return e.Rulebook.Pool(name)
	case definition != nil:
		return rulebook.BuildPool(*definition)
	default:
		return rulebook.Pool{}, errors.New("pool or definition is required")
	}
}

// toolError is returned from handlers; the SDK reports it as an IsError
// result whose text is the localized message.
type toolError struct {
	message string
	err     error
}

func (e *toolError) Error() string { return e.message }

func (e *toolError) Unwrap() error { return e.err }

func (e Env) fail(err error) error {
	return &toolError{message: apperrors.UserMessage(err, e.Locale), err: err}
}
