package modifier

import (
	"fmt"
	"strings"
)

// Add returns a modifier adding a flat bonus (or penalty).
func Add(bonus int) *Modifier {
	return Must(fmt.Sprintf("add(%+d)", bonus), func(base int) int {
		return base + bonus
	})
}

// Multiply returns a modifier scaling the base roll.
func Multiply(factor int) *Modifier {
	return Must(fmt.Sprintf("mul(%d)", factor), func(base int) int {
		return base * factor
	})
}

// Clamp returns a modifier bounding the value to [lo, hi].
func Clamp(lo, hi int) *Modifier {
	return Must(fmt.Sprintf("clamp(%d,%d)", lo, hi), func(base int) int {
		return min(max(base, lo), hi)
	})
}

// Chain applies mods left to right. Nil entries are skipped.
func Chain(mods ...*Modifier) *Modifier {
	keys := make([]string, 0, len(mods))
	kept := make([]*Modifier, 0, len(mods))
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		keys = append(keys, mod.Key())
		kept = append(kept, mod)
	}
	return &Modifier{
		key: "chain(" + strings.Join(keys, ",") + ")",
		apply: func(base int) (int, error) {
			value := base
			for _, mod := range kept {
				next, err := mod.apply(value)
				if err != nil {
					return 0, err
				}
				value = next
			}
			return value, nil
		},
	}
}
