// Package rulebook loads named checks and dice pools from YAML.
//
// A rulebook is untyped input: parameters are decoded through
// check.ParamsFromMap and modifiers are CEL expressions or Lua files, so every
// problem surfaces as a shape or range error when the rulebook is loaded.
package rulebook

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/louisbranch/rollcheck/internal/core/aggregate"
	"github.com/louisbranch/rollcheck/internal/core/check"
	"github.com/louisbranch/rollcheck/internal/core/dice"
	"github.com/louisbranch/rollcheck/internal/core/modifier"
	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

type document struct {
	Checks []CheckSpec `yaml:"checks"`
	Pools  []PoolSpec  `yaml:"pools"`
}

// CheckSpec is the untyped description of a check, as written in a rulebook
// or sent by a tool client.
type CheckSpec struct {
	Name        string         `json:"name,omitempty" yaml:"name" jsonschema:"check name, required in rulebooks"`
	Die         string         `json:"die" yaml:"die" jsonschema:"die kind such as d20 or 20"`
	Test        string         `json:"test" yaml:"test" jsonschema:"test kind: exact, at_least, at_most, within, in_list or skill"`
	Params      map[string]any `json:"params" yaml:"params" jsonschema:"test parameters: target, min, max, values, critical_success, critical_failure"`
	Modifier    string         `json:"modifier,omitempty" yaml:"modifier" jsonschema:"optional CEL expression over n, e.g. n + 3"`
	ModifierLua string         `json:"modifier_lua,omitempty" yaml:"modifier_lua" jsonschema:"optional path to a Lua script defining modify(n)"`
	NaturalCrit string         `json:"natural_crit,omitempty" yaml:"natural_crit" jsonschema:"natural crit policy: default, on or off"`
}

// PoolSpec is the untyped description of a dice pool.
type PoolSpec struct {
	Name        string      `json:"name,omitempty" yaml:"name" jsonschema:"pool name, required in rulebooks"`
	Die         string      `json:"die" yaml:"die" jsonschema:"die kind rolled by every die in the pool"`
	Count       int         `json:"count" yaml:"count" jsonschema:"number of dice in the pool"`
	Modifier    string      `json:"modifier,omitempty" yaml:"modifier" jsonschema:"optional CEL expression applied before each check"`
	NaturalCrit string      `json:"natural_crit,omitempty" yaml:"natural_crit" jsonschema:"natural crit policy: default, on or off"`
	Checks      []CheckSpec `json:"checks,omitempty" yaml:"checks" jsonschema:"per-die checks; modifier and natural_crit come from the pool and may not be set here, die may only repeat the pool die"`
	Rules       []RuleSpec  `json:"rules,omitempty" yaml:"rules" jsonschema:"threshold rules across the pool"`
}

// RuleSpec is the untyped description of a pool rule.
type RuleSpec struct {
	Kind      string `json:"kind" yaml:"kind" jsonschema:"value_count or condition_count"`
	Value     *int   `json:"value,omitempty" yaml:"value" jsonschema:"face counted by value_count rules"`
	Condition *int   `json:"condition,omitempty" yaml:"condition" jsonschema:"check index counted by condition_count rules"`
	Op        string `json:"op,omitempty" yaml:"op" jsonschema:"exact, at_least or at_most; defaults to at_least"`
	Count     *int   `json:"count,omitempty" yaml:"count" jsonschema:"threshold count; defaults to 1"`
}

// Check is a named, validated test.
type Check struct {
	Name       string
	Die        dice.Kind
	Conditions check.Conditions
	Modifier   *modifier.Modifier
	Policy     check.CritPolicy
}

// Pool is a named, validated dice pool.
type Pool struct {
	Name       string
	Die        dice.Kind
	Conditions aggregate.Conditions
}

// Rulebook holds named checks and pools.
type Rulebook struct {
	checks map[string]Check
	pools  map[string]Pool
}

// Load reads a rulebook file. Relative modifier_lua paths resolve against the
// file's directory.
func Load(path string) (*Rulebook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rulebook: %w", err)
	}
	defer f.Close()
	return decode(f, filepath.Dir(path))
}

// Parse decodes a rulebook from r.
func Parse(r io.Reader) (*Rulebook, error) {
	return decode(r, "")
}

func decode(r io.Reader, dir string) (*Rulebook, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &Rulebook{checks: map[string]Check{}, pools: map[string]Pool{}}, nil
		}
		return nil, apperrors.WrapWithMetadata(apperrors.CodeShapeInvalidType,
			"decode rulebook", map[string]string{"Field": "rulebook", "Expected": "a YAML rulebook document"}, err)
	}

	book := &Rulebook{
		checks: make(map[string]Check, len(doc.Checks)),
		pools:  make(map[string]Pool, len(doc.Pools)),
	}
	for i, c := range doc.Checks {
		field := fmt.Sprintf("checks[%d]", i)
		if strings.TrimSpace(c.Name) == "" {
			return nil, missingName(field)
		}
		if _, dup := book.checks[c.Name]; dup {
			return nil, duplicate(field, c.Name)
		}
		built, err := buildCheck(c, dir)
		if err != nil {
			return nil, fmt.Errorf("check %q: %w", c.Name, err)
		}
		book.checks[c.Name] = built
	}
	for i, p := range doc.Pools {
		field := fmt.Sprintf("pools[%d]", i)
		if strings.TrimSpace(p.Name) == "" {
			return nil, missingName(field)
		}
		if _, dup := book.pools[p.Name]; dup {
			return nil, duplicate(field, p.Name)
		}
		built, err := buildPool(p, dir)
		if err != nil {
			return nil, fmt.Errorf("pool %q: %w", p.Name, err)
		}
		book.pools[p.Name] = built
	}
	return book, nil
}

// BuildCheck validates spec into a Check. Relative Lua paths resolve against
// the working directory.
func BuildCheck(spec CheckSpec) (Check, error) {
	return buildCheck(spec, "")
}

func buildCheck(c CheckSpec, dir string) (Check, error) {
	die, err := dice.ParseKind(c.Die)
	if err != nil {
		return Check{}, err
	}
	kind, err := check.ParseTestKind(c.Test)
	if err != nil {
		return Check{}, err
	}
	params, err := check.ParamsFromMap(c.Params)
	if err != nil {
		return Check{}, err
	}
	policy, err := check.ParseCritPolicy(c.NaturalCrit)
	if err != nil {
		return Check{}, err
	}
	mod, err := loadModifier(c.Modifier, c.ModifierLua, dir)
	if err != nil {
		return Check{}, err
	}

	var cond check.Conditions
	if mod != nil {
		cond, err = check.NewModifiedConditions(kind, params, die, mod)
	} else {
		cond, err = check.NewConditions(kind, params, die)
	}
	if err != nil {
		return Check{}, err
	}
	return Check{Name: c.Name, Die: die, Conditions: cond, Modifier: mod, Policy: policy}, nil
}

// BuildPool validates spec into a Pool.
func BuildPool(spec PoolSpec) (Pool, error) {
	return buildPool(spec, "")
}

func buildPool(p PoolSpec, dir string) (Pool, error) {
	die, err := dice.ParseKind(p.Die)
	if err != nil {
		return Pool{}, err
	}
	policy, err := check.ParseCritPolicy(p.NaturalCrit)
	if err != nil {
		return Pool{}, err
	}
	mod, err := loadModifier(p.Modifier, "", dir)
	if err != nil {
		return Pool{}, err
	}

	checks := make([]check.Conditions, 0, len(p.Checks))
	for i, c := range p.Checks {
		if err := validatePoolCheck(i, c, die); err != nil {
			return Pool{}, err
		}
		kind, err := check.ParseTestKind(c.Test)
		if err != nil {
			return Pool{}, err
		}
		params, err := check.ParamsFromMap(c.Params)
		if err != nil {
			return Pool{}, err
		}
		var cond check.Conditions
		if mod != nil {
			cond, err = check.NewModifiedConditions(kind, params, die, mod)
		} else {
			cond, err = check.NewConditions(kind, params, die)
		}
		if err != nil {
			return Pool{}, err
		}
		checks = append(checks, cond)
	}

	rules := make([]aggregate.Rule, 0, len(p.Rules))
	for i, r := range p.Rules {
		rule, err := buildRule(i, r)
		if err != nil {
			return Pool{}, err
		}
		rules = append(rules, rule)
	}

	opts := []aggregate.Option{aggregate.WithCritPolicy(policy)}
	if mod != nil {
		opts = append(opts, aggregate.WithModifier(mod))
	}
	cond, err := aggregate.New(die, p.Count, checks, rules, opts...)
	if err != nil {
		return Pool{}, err
	}
	return Pool{Name: p.Name, Die: die, Conditions: cond}, nil
}

// validatePoolCheck rejects per-die fields that only the pool may set. A die
// is accepted when it names the pool's die.
func validatePoolCheck(index int, c CheckSpec, die dice.Kind) error {
	if strings.TrimSpace(c.Die) != "" {
		own, err := dice.ParseKind(c.Die)
		if err != nil {
			return err
		}
		if own != die {
			return poolCheckField(index, "die", "empty or "+die.String())
		}
	}
	if c.Modifier != "" || c.ModifierLua != "" {
		reason := fmt.Sprintf("pool checks[%d] cannot set a modifier; set it on the pool", index)
		return apperrors.WithMetadata(apperrors.CodeShapeInvalidModifier, reason,
			map[string]string{"Reason": reason})
	}
	if strings.TrimSpace(c.NaturalCrit) != "" {
		return poolCheckField(index, "natural_crit", "empty; set natural_crit on the pool")
	}
	return nil
}

func buildRule(index int, r RuleSpec) (aggregate.Rule, error) {
	kind, err := aggregate.ParseRuleKind(r.Kind)
	if err != nil {
		return aggregate.Rule{}, err
	}
	rule := aggregate.Rule{Kind: kind}
	switch kind {
	case aggregate.RuleValueCount:
		if r.Value == nil {
			return aggregate.Rule{}, invalidRule(index, "value_count rule requires value")
		}
		rule.Value = *r.Value
	case aggregate.RuleConditionCount:
		if r.Condition == nil {
			return aggregate.Rule{}, invalidRule(index, "condition_count rule requires condition")
		}
		rule.ConditionIndex = *r.Condition
	}
	if r.Op != "" || r.Count != nil {
		op, err := aggregate.ParseOp(r.Op)
		if err != nil {
			return aggregate.Rule{}, err
		}
		count := 1
		if r.Count != nil {
			count = *r.Count
		}
		rule.Threshold = &aggregate.Threshold{Op: op, Count: count}
	}
	return rule, nil
}

func loadModifier(expr, luaPath, dir string) (*modifier.Modifier, error) {
	switch {
	case expr != "" && luaPath != "":
		return nil, apperrors.WithMetadata(apperrors.CodeShapeInvalidModifier,
			"modifier and modifier_lua are mutually exclusive",
			map[string]string{"Reason": "modifier and modifier_lua are mutually exclusive"})
	case expr != "":
		return modifier.FromExpression(expr)
	case luaPath != "":
		if dir != "" && !filepath.IsAbs(luaPath) {
			luaPath = filepath.Join(dir, luaPath)
		}
		return modifier.FromLuaFile(luaPath)
	default:
		return nil, nil
	}
}

// Check returns the named check.
func (b *Rulebook) Check(name string) (Check, error) {
	c, ok := b.checks[name]
	if !ok {
		return Check{}, unknownName("check", name)
	}
	return c, nil
}

// Pool returns the named pool.
func (b *Rulebook) Pool(name string) (Pool, error) {
	p, ok := b.pools[name]
	if !ok {
		return Pool{}, unknownName("pool", name)
	}
	return p, nil
}

// CheckNames lists check names in sorted order.
func (b *Rulebook) CheckNames() []string {
	return sortedKeys(b.checks)
}

// PoolNames lists pool names in sorted order.
func (b *Rulebook) PoolNames() []string {
	return sortedKeys(b.pools)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unknownName(kind, name string) error {
	return apperrors.WithMetadata(apperrors.CodeShapeUnknownName,
		fmt.Sprintf("no %s named %s", kind, strconv.Quote(name)),
		map[string]string{"Kind": kind, "Name": name})
}

func missingName(entry string) error {
	return apperrors.WithMetadata(apperrors.CodeShapeMissingName,
		entry+" requires a name",
		map[string]string{"Entry": entry})
}

func poolCheckField(index int, field, expected string) error {
	path := fmt.Sprintf("checks[%d].%s", index, field)
	return apperrors.WithMetadata(apperrors.CodeShapeInvalidType,
		fmt.Sprintf("pool %s must be %s", path, expected),
		map[string]string{"Field": path, "Expected": expected})
}

func duplicate(field, name string) error {
	return apperrors.WithMetadata(apperrors.CodeShapeInvalidType,
		fmt.Sprintf("%s: duplicate name %s", field, strconv.Quote(name)),
		map[string]string{"Field": field + ".name", "Expected": "a unique name"})
}

func invalidRule(index int, reason string) error {
	return apperrors.WithMetadata(apperrors.CodeShapeInvalidRule,
		fmt.Sprintf("rule %d: %s", index, reason),
		map[string]string{"Rule": strconv.Itoa(index), "Reason": reason})
}
