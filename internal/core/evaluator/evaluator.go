// Package evaluator builds and memoizes outcome maps: the full base roll to
// outcome table for a die, a validated test, an optional modifier and a
// natural-crit policy.
package evaluator

import (
	"fmt"
	"log"
	"strings"

	"github.com/louisbranch/rollcheck/internal/core/check"
	"github.com/louisbranch/rollcheck/internal/core/dice"
	"github.com/louisbranch/rollcheck/internal/core/modifier"
	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger logs cache misses and hits to logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Evaluator) { e.logger = logger }
}

// Evaluator builds outcome maps through an injected cache.
type Evaluator struct {
	cache  *Cache
	logger *log.Logger
}

// New returns an evaluator backed by cache. A nil cache gets a private one.
func New(cache *Cache, opts ...Option) *Evaluator {
	if cache == nil {
		cache = NewCache()
	}
	e := &Evaluator{cache: cache}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cache returns the backing cache.
func (e *Evaluator) Cache() *Cache {
	return e.cache
}

// Key returns the cache key for a configuration.
func Key(die dice.Kind, cond check.Conditions, mod *modifier.Modifier, naturalCrit bool) string {
	crit := "crit:off"
	if naturalCrit {
		crit = "crit:on"
	}
	return strings.Join([]string{
		die.String(),
		string(cond.Kind()),
		cond.BehaviorID(),
		cond.Params().Canonical(),
		mod.Key(),
		crit,
	}, "|")
}

// Build returns the outcome map for the configuration, computing it on the
// first request and returning the cached instance afterwards.
func (e *Evaluator) Build(die dice.Kind, cond check.Conditions, mod *modifier.Modifier, policy check.CritPolicy) (*OutcomeMap, error) {
	if err := validateInputs(die, cond); err != nil {
		return nil, err
	}
	naturalCrit := policy.Resolve(cond.Behavior().DefaultNaturalCrit())
	key := Key(die, cond, mod, naturalCrit)
	if m, ok := e.cache.Get(key); ok {
		e.logf("outcome map cache hit: %s", key)
		return m, nil
	}

	entries := make([]Entry, die.Sides())
	for base := 1; base <= die.Sides(); base++ {
		entry, err := evaluate(die, cond, mod, naturalCrit, base)
		if err != nil {
			return nil, err
		}
		entries[base-1] = entry
	}
	m := &OutcomeMap{
		key:         key,
		die:         die,
		kind:        cond.Kind(),
		modifierKey: mod.Key(),
		naturalCrit: naturalCrit,
		entries:     entries,
	}
	e.logf("outcome map built: %s", key)
	return e.cache.Set(key, m), nil
}

// Factory returns the outcome function for the configuration.
func (e *Evaluator) Factory(die dice.Kind, cond check.Conditions, mod *modifier.Modifier, policy check.CritPolicy) (Factory, error) {
	m, err := e.Build(die, cond, mod, policy)
	if err != nil {
		return nil, err
	}
	return m.Factory(), nil
}

func evaluate(die dice.Kind, cond check.Conditions, mod *modifier.Modifier, naturalCrit bool, base int) (Entry, error) {
	value, err := mod.Apply(base)
	if err != nil {
		return Entry{}, err
	}
	evaluated := cond.Evaluate(value)
	entry := Entry{Base: base, Modified: value, Outcome: evaluated, Evaluated: evaluated}
	if naturalCrit {
		if forced, ok := cond.Behavior().NaturalCrit(base, die.Sides()); ok {
			entry.Outcome = forced
			entry.NaturalCrit = true
		}
	}
	return entry, nil
}

func validateInputs(die dice.Kind, cond check.Conditions) error {
	if err := die.Validate(); err != nil {
		return err
	}
	if !cond.Valid() {
		return apperrors.WithMetadata(apperrors.CodeShapeInvalidType, "test conditions were not constructed",
			map[string]string{"Field": "conditions", "Expected": "constructed test conditions"})
	}
	if cond.Die() != die {
		return apperrors.WithMetadata(apperrors.CodeShapeInvalidType,
			fmt.Sprintf("conditions were validated for %s, not %s", cond.Die(), die),
			map[string]string{"Field": "conditions", "Expected": "validated for " + die.String()})
	}
	return nil
}

func (e *Evaluator) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}
