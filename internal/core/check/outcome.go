package check

import "strings"

// Outcome is the categorical result of evaluating a roll against a test.
//
// Outcomes are totally ordered; the declaration order below is the rank
// order used for advantage/disadvantage selection.
type Outcome int

const (
	OutcomeUnspecified Outcome = iota
	OutcomeCriticalFailure
	OutcomeFailure
	OutcomeSuccess
	OutcomeCriticalSuccess
)

// Outcomes lists the defined outcomes from lowest to highest rank.
func Outcomes() []Outcome {
	return []Outcome{
		OutcomeCriticalFailure,
		OutcomeFailure,
		OutcomeSuccess,
		OutcomeCriticalSuccess,
	}
}

// Rank returns the position of o in the total order, 0 for CriticalFailure
// through 3 for CriticalSuccess. Unspecified ranks below everything.
func (o Outcome) Rank() int {
	return int(o) - int(OutcomeCriticalFailure)
}

// Less reports whether o ranks strictly below other.
func (o Outcome) Less(other Outcome) bool {
	return o.Rank() < other.Rank()
}

// IsSuccess reports whether o counts as passing the test.
func (o Outcome) IsSuccess() bool {
	return o == OutcomeSuccess || o == OutcomeCriticalSuccess
}

// IsCritical reports whether o is one of the critical outcomes.
func (o Outcome) IsCritical() bool {
	return o == OutcomeCriticalSuccess || o == OutcomeCriticalFailure
}

// Key returns the stable identifier used in serialized output and catalogs.
func (o Outcome) Key() string {
	switch o {
	case OutcomeCriticalFailure:
		return "critical_failure"
	case OutcomeFailure:
		return "failure"
	case OutcomeSuccess:
		return "success"
	case OutcomeCriticalSuccess:
		return "critical_success"
	default:
		return "unspecified"
	}
}

func (o Outcome) String() string {
	switch o {
	case OutcomeCriticalFailure:
		return "Critical failure"
	case OutcomeFailure:
		return "Failure"
	case OutcomeSuccess:
		return "Success"
	case OutcomeCriticalSuccess:
		return "Critical success"
	default:
		return "Unspecified"
	}
}

// ParseOutcome maps a Key back to its Outcome.
func ParseOutcome(value string) (Outcome, bool) {
	key := strings.ToLower(strings.TrimSpace(value))
	for _, o := range Outcomes() {
		if o.Key() == key {
			return o, true
		}
	}
	return OutcomeUnspecified, false
}

// MarshalText encodes o by its Key.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.Key()), nil
}

// UnmarshalText decodes a Key; unknown keys decode to OutcomeUnspecified.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, _ := ParseOutcome(string(text))
	*o = parsed
	return nil
}
