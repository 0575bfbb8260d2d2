package dice

import (
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

// Kind identifies one of the supported polyhedral dice.
type Kind string

const (
	D4   Kind = "d4"
	D6   Kind = "d6"
	D8   Kind = "d8"
	D10  Kind = "d10"
	D12  Kind = "d12"
	D20  Kind = "d20"
	D100 Kind = "d100"
)

var kindSides = map[Kind]int{
	D4:   4,
	D6:   6,
	D8:   8,
	D10:  10,
	D12:  12,
	D20:  20,
	D100: 100,
}

// Kinds returns every supported die kind ordered by face count.
func Kinds() []Kind {
	return []Kind{D4, D6, D8, D10, D12, D20, D100}
}

// Sides returns the face count, or 0 for an unknown kind.
func (k Kind) Sides() int {
	return kindSides[k]
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	_, ok := kindSides[k]
	return ok
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind accepts "d20", "D20" or "20".
func ParseKind(value string) (Kind, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if _, err := strconv.Atoi(trimmed); err == nil {
		trimmed = "d" + trimmed
	}
	kind := Kind(trimmed)
	if !kind.Valid() {
		return "", UnknownKindError(value)
	}
	return kind, nil
}

// Validate returns a shape error when k is not a supported kind.
func (k Kind) Validate() error {
	if !k.Valid() {
		return UnknownKindError(string(k))
	}
	return nil
}

// UnknownKindError reports an unsupported die kind.
func UnknownKindError(value string) error {
	return apperrors.WithMetadata(apperrors.CodeShapeUnknownDie,
		"unknown die kind "+strconv.Quote(value),
		map[string]string{"Value": value})
}
