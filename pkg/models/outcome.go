package models

// Outcome is the binary classification of a session's dice total.
type Outcome string

const (
	OutcomeHigh Outcome = "High"
	OutcomeLow  Outcome = "Low"
	// OutcomeNone marks the absence of a call, e.g. when there is not
	// enough history to make one.
	OutcomeNone Outcome = ""
)

// Valid reports whether o is one of the two playable outcomes.
func (o Outcome) Valid() bool {
	return o == OutcomeHigh || o == OutcomeLow
}

// Opposite returns the other playable outcome, or OutcomeNone for OutcomeNone.
func (o Outcome) Opposite() Outcome {
	switch o {
	case OutcomeHigh:
		return OutcomeLow
	case OutcomeLow:
		return OutcomeHigh
	default:
		return OutcomeNone
	}
}

// DeriveOutcome maps three dice values to their total and outcome.
// Totals 11 through 17 are High, everything else is Low. Triples are
// always Low regardless of total (5-5-5 = 15 is still Low); that is the
// house rule for triple rolls, not a derivation bug.
func DeriveOutcome(d1, d2, d3 int) (total int, outcome Outcome) {
	total = d1 + d2 + d3
	if d1 == d2 && d2 == d3 {
		return total, OutcomeLow
	}
	if total >= 11 && total <= 17 {
		return total, OutcomeHigh
	}
	return total, OutcomeLow
}
