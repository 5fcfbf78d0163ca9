// Package features turns an ordered outcome history into the fixed
// numeric vector consumed by the learned model and the offline trainer.
package features

import "github.com/Quang17112009/apiluck/pkg/models"

// Width is the number of columns in the feature contract.
const Width = 14

// Vector is one feature row. Field order is the column contract: a
// trained model depends on the exact order, so fields must not be
// reordered or renamed without retraining.
type Vector struct {
	LastOutcomeIsHigh        float64
	CurrentStreakLength      float64
	HighRatioLast5           float64
	LowRatioLast5            float64
	HighRatioLast10          float64
	LowRatioLast10           float64
	HighRatioLast20          float64
	LowRatioLast20           float64
	SwitchCountLast5         float64
	SwitchCountLast10        float64
	IsAlternatingLast4       float64
	IsPairedAlternatingLast6 float64
	LongestHighStreakLast20  float64
	LongestLowStreakLast20   float64
}

var columns = []string{
	"last_outcome_is_high",
	"current_streak_length",
	"high_ratio_last_5",
	"low_ratio_last_5",
	"high_ratio_last_10",
	"low_ratio_last_10",
	"high_ratio_last_20",
	"low_ratio_last_20",
	"switch_count_last_5",
	"switch_count_last_10",
	"is_alternating_last_4",
	"is_paired_alternating_last_6",
	"longest_high_streak_last_20",
	"longest_low_streak_last_20",
}

// Columns returns the ordered column names of the feature contract.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Values returns the vector's values in contract order.
func (v Vector) Values() []float64 {
	return []float64{
		v.LastOutcomeIsHigh,
		v.CurrentStreakLength,
		v.HighRatioLast5,
		v.LowRatioLast5,
		v.HighRatioLast10,
		v.LowRatioLast10,
		v.HighRatioLast20,
		v.LowRatioLast20,
		v.SwitchCountLast5,
		v.SwitchCountLast10,
		v.IsAlternatingLast4,
		v.IsPairedAlternatingLast6,
		v.LongestHighStreakLast20,
		v.LongestLowStreakLast20,
	}
}

// Extract builds the feature vector for a most-recent-first outcome
// history of any length. An empty history yields the zero vector.
func Extract(history []models.Outcome) Vector {
	var v Vector
	if len(history) == 0 {
		return v
	}

	if history[0] == models.OutcomeHigh {
		v.LastOutcomeIsHigh = 1
	}
	v.CurrentStreakLength = float64(leadingRun(history))

	w5 := window(history, 5)
	v.HighRatioLast5, v.LowRatioLast5 = ratios(w5)
	v.SwitchCountLast5 = float64(switches(w5))

	w10 := window(history, 10)
	v.HighRatioLast10, v.LowRatioLast10 = ratios(w10)
	v.SwitchCountLast10 = float64(switches(w10))

	w20 := window(history, 20)
	v.HighRatioLast20, v.LowRatioLast20 = ratios(w20)
	v.LongestHighStreakLast20 = float64(longestRun(w20, models.OutcomeHigh))
	v.LongestLowStreakLast20 = float64(longestRun(w20, models.OutcomeLow))

	if len(history) >= 4 && alternates(history[:4]) {
		v.IsAlternatingLast4 = 1
	}
	if len(history) >= 6 && pairedAlternating(history[:6]) {
		v.IsPairedAlternatingLast6 = 1
	}

	return v
}

func window(history []models.Outcome, n int) []models.Outcome {
	if len(history) < n {
		return history
	}
	return history[:n]
}

// leadingRun counts how many leading entries repeat the first outcome.
func leadingRun(history []models.Outcome) int {
	n := 0
	for _, o := range history {
		if o != history[0] {
			break
		}
		n++
	}
	return n
}

func ratios(win []models.Outcome) (high, low float64) {
	if len(win) == 0 {
		return 0, 0
	}
	var h, l int
	for _, o := range win {
		switch o {
		case models.OutcomeHigh:
			h++
		case models.OutcomeLow:
			l++
		}
	}
	total := float64(len(win))
	return float64(h) / total, float64(l) / total
}

// switches counts adjacent pairs that change outcome.
func switches(win []models.Outcome) int {
	n := 0
	for i := 0; i+1 < len(win); i++ {
		if win[i] != win[i+1] {
			n++
		}
	}
	return n
}

func longestRun(win []models.Outcome, target models.Outcome) int {
	longest, current := 0, 0
	for _, o := range win {
		if o != target {
			current = 0
			continue
		}
		current++
		if current > longest {
			longest = current
		}
	}
	return longest
}

// alternates reports whether no two adjacent entries match.
func alternates(win []models.Outcome) bool {
	for i := 0; i+1 < len(win); i++ {
		if win[i] == win[i+1] {
			return false
		}
	}
	return true
}

// pairedAlternating reports the AABBAA shape over six entries: pairs
// (0,1), (2,3), (4,5) equal within themselves, each differing from the
// next pair.
func pairedAlternating(win []models.Outcome) bool {
	return win[0] == win[1] && win[1] != win[2] &&
		win[2] == win[3] && win[3] != win[4] &&
		win[4] == win[5]
}
