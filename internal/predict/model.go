package predict

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/goccy/go-json"
)

// Classifier is the opaque learned-model contract: the feature columns
// it was trained on, its ordered label set, and prediction over a
// numeric vector in column order.
type Classifier interface {
	FeatureColumns() []string
	Classes() []string
	Predict(values []float64) (string, error)
	PredictProba(values []float64) ([]float64, error)
}

// Model is a logistic-regression classifier loaded from a JSON artifact
// written by the offline trainer. It carries its own training-time
// feature contract and class ordering.
type Model struct {
	TrainedAt  string
	columns    []string
	classes    []string
	coef       [][]float64
	intercepts []float64
}

type modelArtifact struct {
	SchemaVersion  int         `json:"schema_version"`
	TrainedAt      string      `json:"trained_at"`
	FeatureColumns []string    `json:"feature_columns"`
	Classes        []string    `json:"classes"`
	Coefficients   [][]float64 `json:"coefficients"`
	Intercepts     []float64   `json:"intercepts"`
}

// LoadModel reads and validates a model artifact. Callers treat any
// error as "run without a model"; it must never abort startup.
func LoadModel(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var art modelArtifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if err := art.validate(); err != nil {
		return nil, fmt.Errorf("validate model artifact: %w", err)
	}

	return &Model{
		TrainedAt:  art.TrainedAt,
		columns:    art.FeatureColumns,
		classes:    art.Classes,
		coef:       art.Coefficients,
		intercepts: art.Intercepts,
	}, nil
}

func (a *modelArtifact) validate() error {
	if len(a.FeatureColumns) == 0 {
		return errors.New("no feature columns")
	}
	if len(a.Classes) < 2 {
		return errors.New("need at least two classes")
	}
	rows := len(a.Coefficients)
	switch {
	case rows == 0:
		return errors.New("no coefficients")
	case rows == 1 && len(a.Classes) != 2:
		return fmt.Errorf("single coefficient row needs exactly 2 classes, got %d", len(a.Classes))
	case rows != 1 && rows != len(a.Classes):
		return fmt.Errorf("coefficient rows %d match neither 1 nor class count %d", rows, len(a.Classes))
	}
	if len(a.Intercepts) != rows {
		return fmt.Errorf("intercepts %d do not match coefficient rows %d", len(a.Intercepts), rows)
	}
	for i, row := range a.Coefficients {
		if len(row) != len(a.FeatureColumns) {
			return fmt.Errorf("coefficient row %d has %d values, want %d", i, len(row), len(a.FeatureColumns))
		}
	}
	return nil
}

// FeatureColumns returns the training-time column contract.
func (m *Model) FeatureColumns() []string { return m.columns }

// Classes returns the ordered label set.
func (m *Model) Classes() []string { return m.classes }

// PredictProba returns one probability per class, in class order.
func (m *Model) PredictProba(values []float64) ([]float64, error) {
	if len(values) != len(m.columns) {
		return nil, fmt.Errorf("feature vector has %d values, model expects %d", len(values), len(m.columns))
	}
	if len(m.coef) == 1 {
		// Single-row binary form: the score belongs to the second class.
		p := sigmoid(dot(m.coef[0], values) + m.intercepts[0])
		return []float64{1 - p, p}, nil
	}
	scores := make([]float64, len(m.coef))
	for i, row := range m.coef {
		scores[i] = dot(row, values) + m.intercepts[i]
	}
	return softmax(scores), nil
}

// Predict returns the class with the highest probability.
func (m *Model) Predict(values []float64) (string, error) {
	probs, err := m.PredictProba(values)
	if err != nil {
		return "", err
	}
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return m.classes[best], nil
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	var sum float64
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
