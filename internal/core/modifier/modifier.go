// Package modifier wraps the transforms applied to a base roll before it is
// evaluated against a test.
//
// Compiled Go modifiers are type-checked by the compiler. Modifiers loaded
// from untyped sources (CEL expressions, Lua scripts) are probed once at
// construction and may be probed again with Validate.
package modifier

import (
	"fmt"
	"strconv"
	"sync/atomic"

	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

// Func transforms a base roll into a modified value.
type Func func(base int) int

// Modifier owns a transform and the stable key used to memoize outcome maps
// built with it.
type Modifier struct {
	key   string
	apply func(int) (int, error)
}

var anonymousSeq atomic.Uint64

// New wraps fn. The key identifies the transform in outcome-map caches and
// must be identical for behaviorally identical modifiers; an empty key
// assigns a unique per-instance key instead.
func New(key string, fn Func) (*Modifier, error) {
	if fn == nil {
		return nil, invalidModifier("modifier function is nil", nil)
	}
	if key == "" {
		key = "fn#" + strconv.FormatUint(anonymousSeq.Add(1), 10)
	}
	return &Modifier{
		key: key,
		apply: func(base int) (int, error) {
			return fn(base), nil
		},
	}, nil
}

// Must is like New but panics on error. Useful for package-level modifiers.
func Must(key string, fn Func) *Modifier {
	mod, err := New(key, fn)
	if err != nil {
		panic(err)
	}
	return mod
}

// newProbed builds a modifier whose transform can fail at runtime, and probes
// it once so a broken script is rejected before use.
func newProbed(key string, apply func(int) (int, error)) (*Modifier, error) {
	mod := &Modifier{key: key, apply: apply}
	if err := mod.Validate(); err != nil {
		return nil, err
	}
	return mod, nil
}

// Key returns the stable cache key of the modifier. A nil modifier has the
// key "none".
func (m *Modifier) Key() string {
	if m == nil {
		return "none"
	}
	return m.key
}

// Apply transforms base. A nil modifier is the identity.
func (m *Modifier) Apply(base int) (int, error) {
	if m == nil {
		return base, nil
	}
	value, err := m.apply(base)
	if err != nil {
		return 0, invalidModifier(fmt.Sprintf("apply to %d: %v", base, err), err)
	}
	return value, nil
}

// Validate probes the transform with a base of 1 and reports a shape error
// when it does not yield an integer.
func (m *Modifier) Validate() error {
	if m == nil {
		return nil
	}
	if m.apply == nil {
		return invalidModifier("modifier function is nil", nil)
	}
	if _, err := m.apply(1); err != nil {
		return invalidModifier(err.Error(), err)
	}
	return nil
}

func invalidModifier(reason string, cause error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeShapeInvalidModifier,
		"invalid modifier: "+reason,
		map[string]string{"Reason": reason},
		cause)
}
