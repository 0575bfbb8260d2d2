package evaluator

import (
	"fmt"
	"strconv"

	"github.com/louisbranch/rollcheck/internal/core/check"
	"github.com/louisbranch/rollcheck/internal/core/dice"
	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

// Factory judges a base roll.
type Factory func(base int) check.Outcome

// Entry is the evaluation of one base face.
type Entry struct {
	Base     int           `json:"base"`
	Modified int           `json:"modified"`
	Outcome  check.Outcome `json:"outcome"`
	// Evaluated is the outcome before any natural-crit override.
	Evaluated   check.Outcome `json:"evaluated"`
	NaturalCrit bool          `json:"natural_crit"`
}

// OutcomeMap is the complete base roll to outcome mapping for one die, test,
// modifier and crit policy. It is never mutated after Build returns it.
type OutcomeMap struct {
	key         string
	die         dice.Kind
	kind        check.TestKind
	modifierKey string
	naturalCrit bool
	entries     []Entry
}

// Key returns the cache key the map is stored under.
func (m *OutcomeMap) Key() string { return m.key }

// Die returns the die the map covers.
func (m *OutcomeMap) Die() dice.Kind { return m.die }

// Kind returns the test kind.
func (m *OutcomeMap) Kind() check.TestKind { return m.kind }

// ModifierKey returns the key of the modifier applied, or "none".
func (m *OutcomeMap) ModifierKey() string { return m.modifierKey }

// NaturalCrit reports whether natural-crit overrides were applied.
func (m *OutcomeMap) NaturalCrit() bool { return m.naturalCrit }

// Sides returns the number of faces mapped.
func (m *OutcomeMap) Sides() int { return len(m.entries) }

// Lookup returns the entry for base, or a range error outside [1, sides].
func (m *OutcomeMap) Lookup(base int) (Entry, error) {
	if base < 1 || base > len(m.entries) {
		return Entry{}, RollOutOfRangeError(base, m.die)
	}
	return m.entries[base-1], nil
}

// Outcome returns the outcome for base, or OutcomeUnspecified outside the die.
func (m *OutcomeMap) Outcome(base int) check.Outcome {
	entry, err := m.Lookup(base)
	if err != nil {
		return check.OutcomeUnspecified
	}
	return entry.Outcome
}

// Modified returns the modified value for base, or base itself outside the die.
func (m *OutcomeMap) Modified(base int) int {
	entry, err := m.Lookup(base)
	if err != nil {
		return base
	}
	return entry.Modified
}

// Entries returns a copy of every entry in face order.
func (m *OutcomeMap) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// Outcomes returns the outcomes in face order.
func (m *OutcomeMap) Outcomes() []check.Outcome {
	out := make([]check.Outcome, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Outcome
	}
	return out
}

// Factory returns the map as a function of the base roll.
func (m *OutcomeMap) Factory() Factory {
	return m.Outcome
}

// RollOutOfRangeError reports a face that the die cannot show.
func RollOutOfRangeError(base int, die dice.Kind) error {
	return apperrors.WithMetadata(apperrors.CodeRangeRoll,
		fmt.Sprintf("roll %d is not a face of %s", base, die),
		map[string]string{"Value": strconv.Itoa(base), "Sides": strconv.Itoa(die.Sides())})
}
