package check

import "github.com/louisbranch/rollcheck/internal/core/dice"

// Conditions is a validated test bound to a die. The zero value is not valid;
// use NewConditions or NewModifiedConditions.
type Conditions struct {
	kind     TestKind
	params   Params
	die      dice.Kind
	rng      Range
	modified bool
	behavior Behavior
	identity string
}

// Kind returns the test kind.
func (c Conditions) Kind() TestKind { return c.kind }

// Params returns a copy of the validated parameters.
func (c Conditions) Params() Params { return c.params.Clone() }

// Die returns the die the conditions were validated for.
func (c Conditions) Die() dice.Kind { return c.die }

// Range returns the range the parameters were validated against.
func (c Conditions) Range() Range { return c.rng }

// Modified reports whether the conditions were validated against a modifier
// range.
func (c Conditions) Modified() bool { return c.modified }

// Valid reports whether c came from a constructor.
func (c Conditions) Valid() bool { return c.behavior != nil }

// Behavior returns the behavior resolved at construction.
func (c Conditions) Behavior() Behavior { return c.behavior }

// BehaviorID identifies the registered behavior; it differs between
// registries that register their own behavior under the same kind name.
func (c Conditions) BehaviorID() string { return c.identity }

// Evaluate judges value against the conditions without natural crits.
func (c Conditions) Evaluate(value int) Outcome {
	if c.behavior == nil {
		return OutcomeUnspecified
	}
	return c.behavior.Evaluate(value, c.params)
}

// Canonical returns a stable serialized form of kind and parameters.
func (c Conditions) Canonical() string {
	return string(c.kind) + ":" + c.params.Canonical()
}
