package check

import (
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

// CritPolicy controls natural-crit overrides on the raw minimum and maximum
// faces.
type CritPolicy int

const (
	// CritDefault defers to the test kind: on for skill, off otherwise.
	CritDefault CritPolicy = iota
	// CritOn forces natural-crit overrides.
	CritOn
	// CritOff disables natural-crit overrides.
	CritOff
)

// Resolve returns whether overrides apply for a kind whose default is def.
func (p CritPolicy) Resolve(def bool) bool {
	switch p {
	case CritOn:
		return true
	case CritOff:
		return false
	default:
		return def
	}
}

func (p CritPolicy) String() string {
	switch p {
	case CritOn:
		return "on"
	case CritOff:
		return "off"
	default:
		return "default"
	}
}

// ParseCritPolicy accepts default|on|off (and true/false).
func ParseCritPolicy(value string) (CritPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "default":
		return CritDefault, nil
	case "on", "true", "enabled":
		return CritOn, nil
	case "off", "false", "disabled":
		return CritOff, nil
	default:
		return CritDefault, apperrors.WithMetadata(apperrors.CodeShapeUnknownCritPolicy,
			"unknown natural crit policy "+strconv.Quote(value),
			map[string]string{"Value": value})
	}
}
