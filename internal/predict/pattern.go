package predict

import (
	"math/rand"

	"github.com/Quang17112009/apiluck/pkg/models"
)

// Pattern rule constants. Streak confidence starts at the base and grows
// per run entry up to the cap.
const (
	minPatternHistory = 5
	minStreakRun      = 3
	streakBase        = 0.50
	streakStep        = 0.05
	streakCap         = 0.85
	alternationConf   = 0.60
	motifConf         = 0.55
)

// Pattern runs the rule cascade over a most-recent-first history and
// returns the first matching rule's call. Histories shorter than five
// entries are refused with an insufficient-data result.
func Pattern(history []models.Outcome) models.Prediction {
	if len(history) < minPatternHistory {
		return models.Prediction{
			Outcome:    models.OutcomeNone,
			Confidence: models.Conf(0),
			Note:       "insufficient data",
			Rationale:  models.RationaleInsufficientData,
			Source:     models.SourcePattern,
		}
	}

	if run := leadingRun(history); run >= minStreakRun {
		conf := streakBase + float64(run)*streakStep
		if conf > streakCap {
			conf = streakCap
		}
		return models.Prediction{
			Outcome:    history[0],
			Confidence: models.Conf(conf),
			Rationale:  models.RationaleStreak,
			Source:     models.SourcePattern,
		}
	}

	head := history[:4]
	if alternates(head) {
		// A strict zig-zag continues: the next call is the opposite of
		// the newest outcome.
		return models.Prediction{
			Outcome:    history[0].Opposite(),
			Confidence: models.Conf(alternationConf),
			Rationale:  models.RationaleAlternation,
			Source:     models.SourcePattern,
		}
	}

	// Motifs over the newest four entries, ABBA before ABAA.
	if head[0] != head[1] && head[1] == head[2] && head[3] == head[0] {
		return motif(head[1], models.RationaleMotifABBA)
	}
	if head[0] != head[1] && head[2] == head[0] && head[3] == head[0] {
		return motif(head[1], models.RationaleMotifABAA)
	}

	return majority(history)
}

func motif(outcome models.Outcome, tag string) models.Prediction {
	return models.Prediction{
		Outcome:    outcome,
		Confidence: models.Conf(motifConf),
		Rationale:  tag,
		Source:     models.SourcePattern,
	}
}

// majority votes over the full supplied history. Exact ties are split by
// coin flip.
func majority(history []models.Outcome) models.Prediction {
	var high, low int
	for _, o := range history {
		switch o {
		case models.OutcomeHigh:
			high++
		case models.OutcomeLow:
			low++
		}
	}

	pred := models.Prediction{
		Rationale: models.RationaleMajority,
		Source:    models.SourcePattern,
	}
	total := float64(high + low)
	switch {
	case high > low:
		pred.Outcome = models.OutcomeHigh
		pred.Confidence = models.Conf(float64(high) / total)
	case low > high:
		pred.Outcome = models.OutcomeLow
		pred.Confidence = models.Conf(float64(low) / total)
	default:
		if rand.Intn(2) == 0 {
			pred.Outcome = models.OutcomeHigh
		} else {
			pred.Outcome = models.OutcomeLow
		}
		pred.Confidence = models.Conf(0.5)
	}
	return pred
}

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

func alternates(win []models.Outcome) bool {
	for i := 0; i+1 < len(win); i++ {
		if win[i] == win[i+1] {
			return false
		}
	}
	return true
}
