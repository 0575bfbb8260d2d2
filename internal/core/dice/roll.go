// Package dice defines the supported die kinds, roll modes and the random
// source seam, and rolls raw dice pools.
package dice

import (
	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

// ErrMissingDice indicates a roll request had no dice specified.
var ErrMissingDice = apperrors.New(apperrors.CodeDiceMissing, "at least one die must be provided")

// ErrInvalidDiceSpec indicates a die specification has invalid fields.
var ErrInvalidDiceSpec = apperrors.New(apperrors.CodeDiceInvalidSpec, "dice must have a known kind and positive count")

// Spec describes a die to roll and how many times to roll it.
type Spec struct {
	Kind  Kind
	Count int
}

// Roll captures the results for a single dice spec.
type Roll struct {
	Kind    Kind
	Results []int
	Total   int
}

// Result captures the results from rolling multiple dice.
type Result struct {
	Rolls []Roll
	Total int
}

// RollWithSource rolls dice drawn from src.
//
// # Determinism
//
// Given sources seeded alike and the same specs (including order and values),
// RollWithSource always produces the same Result.
//
// # Ordering
//
// Dice specs are processed in slice order and Result.Rolls keeps that order.
// Each Roll.Total sums its Results; Result.Total sums every die rolled.
//
// # Errors
//
//   - At least one Spec must be provided, otherwise ErrMissingDice.
//   - Each Spec must have a known Kind and Count > 0, otherwise
//     ErrInvalidDiceSpec.
func RollWithSource(src Source, specs []Spec) (Result, error) {
	if len(specs) == 0 {
		return Result{}, ErrMissingDice
	}

	rolls := make([]Roll, 0, len(specs))
	total := 0
	for _, spec := range specs {
		if !spec.Kind.Valid() || spec.Count <= 0 {
			return Result{}, ErrInvalidDiceSpec
		}

		sides := spec.Kind.Sides()
		results := make([]int, spec.Count)
		rollTotal := 0
		for i := range results {
			value := Face(src, sides)
			results[i] = value
			rollTotal += value
		}

		rolls = append(rolls, Roll{
			Kind:    spec.Kind,
			Results: results,
			Total:   rollTotal,
		})
		total += rollTotal
	}

	return Result{
		Rolls: rolls,
		Total: total,
	}, nil
}
