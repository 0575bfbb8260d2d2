package check

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

// Params carries the numeric parameters of a test. Which fields are required
// depends on the test kind; unset optional fields are nil.
type Params struct {
	Target          *int  `json:"target,omitempty" yaml:"target,omitempty"`
	Min             *int  `json:"min,omitempty" yaml:"min,omitempty"`
	Max             *int  `json:"max,omitempty" yaml:"max,omitempty"`
	Values          []int `json:"values,omitempty" yaml:"values,omitempty"`
	CriticalSuccess *int  `json:"critical_success,omitempty" yaml:"critical_success,omitempty"`
	CriticalFailure *int  `json:"critical_failure,omitempty" yaml:"critical_failure,omitempty"`
}

// Int returns a pointer to v, for building Params literals.
func Int(v int) *int {
	return &v
}

// Target builds Params for exact, at_least and at_most tests.
func Target(target int) Params {
	return Params{Target: Int(target)}
}

// Between builds Params for within tests.
func Between(lo, hi int) Params {
	return Params{Min: Int(lo), Max: Int(hi)}
}

// OneOf builds Params for in_list tests.
func OneOf(values ...int) Params {
	return Params{Values: append([]int(nil), values...)}
}

// Skill builds Params for skill tests. Zero crit thresholds are left unset.
func Skill(target, criticalSuccess, criticalFailure int) Params {
	p := Params{Target: Int(target)}
	if criticalSuccess != 0 {
		p.CriticalSuccess = Int(criticalSuccess)
	}
	if criticalFailure != 0 {
		p.CriticalFailure = Int(criticalFailure)
	}
	return p
}

// Clone returns a deep copy so callers cannot mutate validated parameters.
func (p Params) Clone() Params {
	out := Params{}
	if p.Target != nil {
		out.Target = Int(*p.Target)
	}
	if p.Min != nil {
		out.Min = Int(*p.Min)
	}
	if p.Max != nil {
		out.Max = Int(*p.Max)
	}
	if p.Values != nil {
		out.Values = append([]int(nil), p.Values...)
	}
	if p.CriticalSuccess != nil {
		out.CriticalSuccess = Int(*p.CriticalSuccess)
	}
	if p.CriticalFailure != nil {
		out.CriticalFailure = Int(*p.CriticalFailure)
	}
	return out
}

// Canonical returns a stable serialized form used in cache keys.
func (p Params) Canonical() string {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("%+v", p)
	}
	return string(data)
}

var paramAliases = map[string]string{
	"target":           "target",
	"min":              "min",
	"max":              "max",
	"values":           "values",
	"critical_success": "critical_success",
	"criticalsuccess":  "critical_success",
	"crit_success":     "critical_success",
	"critical_failure": "critical_failure",
	"criticalfailure":  "critical_failure",
	"crit_failure":     "critical_failure",
}

// ParamsFromMap decodes parameters from an untyped map, as produced by YAML
// or JSON decoders. Non-integer values yield a shape error; unknown keys are
// ignored.
func ParamsFromMap(raw map[string]any) (Params, error) {
	var p Params
	for key, value := range raw {
		field, ok := paramAliases[strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "-", "_"))]
		if !ok || value == nil {
			continue
		}
		if field == "values" {
			values, err := intSlice(field, value)
			if err != nil {
				return Params{}, err
			}
			p.Values = values
			continue
		}
		n, err := integer(field, value)
		if err != nil {
			return Params{}, err
		}
		switch field {
		case "target":
			p.Target = Int(n)
		case "min":
			p.Min = Int(n)
		case "max":
			p.Max = Int(n)
		case "critical_success":
			p.CriticalSuccess = Int(n)
		case "critical_failure":
			p.CriticalFailure = Int(n)
		}
	}
	return p, nil
}

func integer(field string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint64:
		if v <= math.MaxInt32 {
			return int(v), nil
		}
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int(v), nil
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
	}
	return 0, invalidType(field, "an integer")
}

func intSlice(field string, value any) ([]int, error) {
	switch v := value.(type) {
	case []int:
		return append([]int(nil), v...), nil
	case []any:
		out := make([]int, 0, len(v))
		for i, item := range v {
			n, err := integer(fmt.Sprintf("%s[%d]", field, i), item)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	default:
		return nil, invalidType(field, "a list of integers")
	}
}

func invalidType(field, expected string) error {
	return apperrors.WithMetadata(apperrors.CodeShapeInvalidType,
		fmt.Sprintf("field %s must be %s", field, expected),
		map[string]string{"Field": field, "Expected": expected})
}

func missingField(kind TestKind, field string) error {
	return apperrors.WithMetadata(apperrors.CodeShapeMissingField,
		fmt.Sprintf("%s test requires field %s", kind, field),
		map[string]string{"TestKind": string(kind), "Field": field})
}
