package models

// Rationale tags name the rule or condition that produced a prediction.
const (
	RationaleStreak           = "streak"
	RationaleAlternation      = "alternation"
	RationaleMotifABBA        = "motif_abba"
	RationaleMotifABAA        = "motif_abaa"
	RationaleMajority         = "majority"
	RationaleModel            = "model"
	RationaleInsufficientData = "insufficient_data"
	RationaleNoData           = "no_data"
)

// Prediction sources.
const (
	SourceModel   = "model"
	SourcePattern = "pattern"
)

// Prediction is a single next-outcome call with its confidence and the
// rule that produced it.
type Prediction struct {
	Outcome    Outcome  `json:"predicted_outcome"`
	Confidence *float64 `json:"confidence"` // nil when no probability is available
	Note       string   `json:"note,omitempty"`
	Rationale  string   `json:"rationale"`
	Source     string   `json:"source"`
}

// Conf returns a pointer to v, for building predictions inline.
func Conf(v float64) *float64 { return &v }
