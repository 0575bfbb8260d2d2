package dice

import (
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

// RollMode selects between a single roll and roll-twice-and-select.
type RollMode string

const (
	ModeNormal       RollMode = "normal"
	ModeAdvantage    RollMode = "advantage"
	ModeDisadvantage RollMode = "disadvantage"
)

// Draws returns how many base rolls the mode consumes.
func (m RollMode) Draws() int {
	if m == ModeAdvantage || m == ModeDisadvantage {
		return 2
	}
	return 1
}

// ParseRollMode accepts the mode names plus the short forms "adv"/"dis".
// An empty value selects ModeNormal.
func ParseRollMode(value string) (RollMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "normal":
		return ModeNormal, nil
	case "advantage", "adv":
		return ModeAdvantage, nil
	case "disadvantage", "dis":
		return ModeDisadvantage, nil
	default:
		return "", apperrors.WithMetadata(apperrors.CodeShapeUnknownRollMode,
			"unknown roll mode "+strconv.Quote(value),
			map[string]string{"Value": value})
	}
}

// Validate returns a shape error for an unknown mode. The empty mode is
// treated as ModeNormal.
func (m RollMode) Validate() error {
	switch m {
	case "", ModeNormal, ModeAdvantage, ModeDisadvantage:
		return nil
	default:
		return apperrors.WithMetadata(apperrors.CodeShapeUnknownRollMode,
			"unknown roll mode "+strconv.Quote(string(m)),
			map[string]string{"Value": string(m)})
	}
}
