package features

import "github.com/Quang17112009/apiluck/pkg/models"

// TrainingPair is one labeled feature row for offline training.
type TrainingPair struct {
	Features Vector
	Label    models.Outcome
}

// TrainingPairs builds labeled rows from a full most-recent-first
// history. Each outcome is labeled against features extracted from the
// strictly older part of the history. Positions with no older history
// are excluded, so no zero-vector rows are produced and fewer than two
// outcomes yield no pairs. The extraction here must stay identical to
// the online path or a trained model goes silently stale.
func TrainingPairs(history []models.Outcome) []TrainingPair {
	if len(history) < 2 {
		return nil
	}
	pairs := make([]TrainingPair, 0, len(history)-1)
	for i := 0; i+1 < len(history); i++ {
		pairs = append(pairs, TrainingPair{
			Features: Extract(history[i+1:]),
			Label:    history[i],
		})
	}
	return pairs
}
