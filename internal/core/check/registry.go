package check

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/louisbranch/rollcheck/internal/core/dice"
	"github.com/louisbranch/rollcheck/internal/core/modifier"
	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

// builtinIdentity marks the stock behaviors, identical in every registry.
const builtinIdentity = "builtin"

var registrySeq atomic.Uint64

// Registry maps test kinds to their behaviors.
type Registry struct {
	mu        sync.RWMutex
	id        uint64
	revision  uint64
	behaviors map[TestKind]registered
}

// registered pairs a behavior with an identity unique across registries.
type registered struct {
	behavior Behavior
	identity string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		id:        registrySeq.Add(1),
		behaviors: make(map[TestKind]registered),
	}
}

// DefaultRegistry returns a registry preloaded with the six built-in kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for kind, behavior := range builtinBehaviors() {
		r.behaviors[kind] = registered{behavior: behavior, identity: builtinIdentity}
	}
	return r
}

var builtin = DefaultRegistry()

// Builtin returns the shared registry used by the package-level constructors.
func Builtin() *Registry {
	return builtin
}

// Register adds or replaces the behavior for kind.
func (r *Registry) Register(kind TestKind, behavior Behavior) error {
	name := strings.TrimSpace(string(kind))
	if name == "" {
		return apperrors.New(apperrors.CodeShapeUnknownTestKind, "test kind name is required")
	}
	if behavior == nil {
		return apperrors.New(apperrors.CodeShapeInvalidType, fmt.Sprintf("behavior for %s is nil", name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revision++
	r.behaviors[TestKind(name)] = registered{
		behavior: behavior,
		identity: fmt.Sprintf("r%d.%d", r.id, r.revision),
	}
	return nil
}

// Lookup returns the behavior for kind or an unknown-kind shape error.
func (r *Registry) Lookup(kind TestKind) (Behavior, error) {
	entry, err := r.lookup(kind)
	return entry.behavior, err
}

func (r *Registry) lookup(kind TestKind) (registered, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.behaviors[kind]
	if !ok {
		return registered{}, UnknownTestKindError(string(kind))
	}
	return entry, nil
}

// Kinds lists registered kinds in sorted order.
func (r *Registry) Kinds() []TestKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]TestKind, 0, len(r.behaviors))
	for kind := range r.behaviors {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// NewConditions validates p for kind against the die's raw face range.
func (r *Registry) NewConditions(kind TestKind, p Params, die dice.Kind) (Conditions, error) {
	if err := die.Validate(); err != nil {
		return Conditions{}, err
	}
	return r.build(kind, p, die, DieRange(die), false)
}

// NewModifiedConditions validates p for kind against the range mod can reach
// from the die's extremes.
func (r *Registry) NewModifiedConditions(kind TestKind, p Params, die dice.Kind, mod *modifier.Modifier) (Conditions, error) {
	behavior, err := r.Lookup(kind)
	if err != nil {
		return Conditions{}, err
	}
	if err := behavior.ValidateShape(p); err != nil {
		return Conditions{}, err
	}
	rng, err := ModifiedRange(die, mod)
	if err != nil {
		return Conditions{}, err
	}
	return r.build(kind, p, die, rng, true)
}

func (r *Registry) build(kind TestKind, p Params, die dice.Kind, rng Range, modified bool) (Conditions, error) {
	entry, err := r.lookup(kind)
	if err != nil {
		return Conditions{}, err
	}
	behavior := entry.behavior
	if err := behavior.ValidateShape(p); err != nil {
		return Conditions{}, err
	}
	if err := behavior.ValidateRange(p, rng); err != nil {
		return Conditions{}, err
	}
	return Conditions{
		kind:     kind,
		params:   p.Clone(),
		die:      die,
		rng:      rng,
		modified: modified,
		behavior: behavior,
		identity: entry.identity,
	}, nil
}

// NewConditions validates p for kind against the die's raw face range using
// the built-in registry.
func NewConditions(kind TestKind, p Params, die dice.Kind) (Conditions, error) {
	return builtin.NewConditions(kind, p, die)
}

// NewModifiedConditions validates p against the modifier-extended range using
// the built-in registry.
func NewModifiedConditions(kind TestKind, p Params, die dice.Kind, mod *modifier.Modifier) (Conditions, error) {
	return builtin.NewModifiedConditions(kind, p, die, mod)
}
