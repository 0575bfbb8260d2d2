package check

import (
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

// TestKind names the comparison a test performs.
type TestKind string

const (
	KindExact   TestKind = "exact"
	KindAtLeast TestKind = "at_least"
	KindAtMost  TestKind = "at_most"
	KindWithin  TestKind = "within"
	KindInList  TestKind = "in_list"
	KindSkill   TestKind = "skill"
)

// TestKinds lists the built-in test kinds.
func TestKinds() []TestKind {
	return []TestKind{KindExact, KindAtLeast, KindAtMost, KindWithin, KindInList, KindSkill}
}

// Valid reports whether k is a built-in kind.
func (k TestKind) Valid() bool {
	switch k {
	case KindExact, KindAtLeast, KindAtMost, KindWithin, KindInList, KindSkill:
		return true
	default:
		return false
	}
}

// ParseTestKind accepts snake_case, kebab-case and camelCase spellings
// ("at_least", "at-least", "atLeast").
func ParseTestKind(value string) (TestKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "atleast":
		normalized = string(KindAtLeast)
	case "atmost":
		normalized = string(KindAtMost)
	case "inlist":
		normalized = string(KindInList)
	}
	kind := TestKind(normalized)
	if !kind.Valid() {
		return "", UnknownTestKindError(value)
	}
	return kind, nil
}

// UnknownTestKindError reports a test kind outside the registry.
func UnknownTestKindError(value string) error {
	return apperrors.WithMetadata(apperrors.CodeShapeUnknownTestKind,
		"unknown test kind "+strconv.Quote(value),
		map[string]string{"Value": value})
}
