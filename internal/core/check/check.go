// Package check defines test kinds, outcomes and the validated test
// conditions a roll is evaluated against.
//
// Conditions are validated entirely at construction: structural problems
// (missing fields, wrong types, unknown kinds) are shape errors and numeric
// problems (targets outside the achievable range, inverted bounds, crit
// thresholds out of order) are range errors.
package check

// MeetsDifficulty returns true if total >= difficulty.
func MeetsDifficulty(total, difficulty int) bool {
	return total >= difficulty
}

// Margin calculates the margin of success or failure.
// Positive values indicate success, negative indicate failure.
func Margin(total, difficulty int) int {
	return total - difficulty
}

// Result represents the outcome of a difficulty check.
type Result struct {
	Success bool
	Margin  int
}

// Check performs a difficulty check and returns the result.
func Check(total, difficulty int) Result {
	return Result{
		Success: MeetsDifficulty(total, difficulty),
		Margin:  Margin(total, difficulty),
	}
}
