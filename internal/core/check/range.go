package check

import (
	"fmt"
	"strconv"

	"github.com/louisbranch/rollcheck/internal/core/dice"
	"github.com/louisbranch/rollcheck/internal/core/modifier"
	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

// Range is a closed interval of achievable values.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether v lies in [r.Min, r.Max].
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("%d–%d", r.Min, r.Max)
}

// DieRange returns the raw face range [1, sides].
func DieRange(die dice.Kind) Range {
	return Range{Min: 1, Max: die.Sides()}
}

// ModifiedRange returns the range reachable after mod, sampling only the two
// die extremes: [min(mod(1), mod(sides)), max(mod(1), mod(sides))].
//
// Interior faces are not sampled, so a non-monotonic modifier may reach
// values outside the reported range.
func ModifiedRange(die dice.Kind, mod *modifier.Modifier) (Range, error) {
	if err := die.Validate(); err != nil {
		return Range{}, err
	}
	low, err := mod.Apply(1)
	if err != nil {
		return Range{}, err
	}
	high, err := mod.Apply(die.Sides())
	if err != nil {
		return Range{}, err
	}
	return Range{Min: min(low, high), Max: max(low, high)}, nil
}

func checkInRange(field string, value int, r Range) error {
	if r.Contains(value) {
		return nil
	}
	return apperrors.WithMetadata(apperrors.CodeRangeTarget,
		fmt.Sprintf("%s %d outside achievable range %s", field, value, r),
		map[string]string{
			"Field":  field,
			"Target": strconv.Itoa(value),
			"Min":    strconv.Itoa(r.Min),
			"Max":    strconv.Itoa(r.Max),
		})
}
