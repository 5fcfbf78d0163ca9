// Package predict produces next-outcome calls from stored history,
// preferring a trained classifier and falling back to hand-authored
// pattern rules whenever the model path cannot deliver.
package predict

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/Quang17112009/apiluck/internal/features"
	"github.com/Quang17112009/apiluck/pkg/models"
)

// HistorySource supplies the most-recent-first outcome history the
// engine predicts from.
type HistorySource interface {
	OutcomeHistory(ctx context.Context, limit int) ([]models.Outcome, error)
}

// Engine answers prediction queries. The classifier is optional: nil
// means pattern rules only. Both collaborators are fixed at construction
// and never swapped, so concurrent queries need no locking.
type Engine struct {
	history HistorySource
	model   Classifier
	window  int
}

// DefaultAnalysisWindow bounds how much history a query considers when
// the configuration does not say otherwise.
const DefaultAnalysisWindow = 100

// NewEngine creates an Engine. model may be nil.
func NewEngine(history HistorySource, model Classifier, window int) *Engine {
	if window <= 0 {
		window = DefaultAnalysisWindow
	}
	return &Engine{history: history, model: model, window: window}
}

// ModelLoaded reports whether a classifier is attached.
func (e *Engine) ModelLoaded() bool { return e.model != nil }

// Predict produces the next-outcome call for the current stored history.
// Only storage errors come back as errors; every model-path failure
// degrades to the pattern cascade instead.
func (e *Engine) Predict(ctx context.Context) (models.Prediction, error) {
	history, err := e.history.OutcomeHistory(ctx, e.window)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("load outcome history: %w", err)
	}
	if len(history) == 0 {
		return models.Prediction{
			Outcome:    models.OutcomeNone,
			Confidence: models.Conf(0),
			Note:       "no data",
			Rationale:  models.RationaleNoData,
			Source:     models.SourcePattern,
		}, nil
	}

	if e.model != nil {
		if pred, ok := e.modelPredict(history); ok {
			return pred, nil
		}
	}
	return Pattern(history), nil
}

// modelPredict runs the classifier path. ok=false sends the caller to
// the pattern cascade.
func (e *Engine) modelPredict(history []models.Outcome) (models.Prediction, bool) {
	if !slices.Equal(features.Columns(), e.model.FeatureColumns()) {
		log.Warn().Msg("model feature contract does not match extractor, using pattern rules")
		return models.Prediction{}, false
	}

	values := features.Extract(history).Values()
	label, err := e.model.Predict(values)
	if err != nil {
		log.Warn().Err(err).Msg("model predict failed, using pattern rules")
		return models.Prediction{}, false
	}
	outcome := models.Outcome(label)
	if !outcome.Valid() {
		log.Warn().Str("label", label).Msg("model predicted unknown label, using pattern rules")
		return models.Prediction{}, false
	}

	pred := models.Prediction{
		Outcome:   outcome,
		Rationale: models.RationaleModel,
		Source:    models.SourceModel,
	}

	probs, err := e.model.PredictProba(values)
	if err != nil {
		log.Warn().Err(err).Msg("model predict_proba failed, using pattern rules")
		return models.Prediction{}, false
	}
	idx := slices.Index(e.model.Classes(), label)
	if idx < 0 || idx >= len(probs) {
		// Keep the call, drop the probability.
		log.Info().Str("label", label).Msg("predicted label missing from model classes")
		pred.Note = "probability unavailable"
		return pred, true
	}
	pred.Confidence = models.Conf(probs[idx])
	return pred, true
}
