// Package scoring estimates cardiovascular risk from a clinical profile and a
// symptom log with a frozen logistic-regression model.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/peri/internal/domain/model"
)

// Input is what a risk estimate is computed from.
type Input struct {
	Profile model.Profile
	Log     model.SymptomLog
}

// Prediction is the model output for one feature vector.
type Prediction struct {
	Probability float64 `json:"probability"`
	Logit       float64 `json:"logit"`
	Vector      Vector  `json:"vector"`
}

// Scorer computes a full risk breakdown.
type Scorer interface {
	// Score computes the breakdown for in, honoring ctx for cancellation.
	// It returns ErrInsufficientData when the profile cannot be scored.
	Score(ctx context.Context, in Input) (Result, error)
}

// Option applies a configuration option to the LogisticScorer.
type Option func(*LogisticScorer)

// WithModel replaces the frozen model. Used by tests.
func WithModel(m Model) Option {
	return func(s *LogisticScorer) {
		if len(m.Params) > 0 {
			s.model = m
		}
	}
}

// WithoutDataGate scores profiles even when age or systolic pressure is
// missing, relying on fallbacks alone.
func WithoutDataGate() Option {
	return func(s *LogisticScorer) {
		s.gate = false
	}
}

// LogisticScorer implements Scorer with the fixed coefficients. It holds no
// mutable state and is safe for concurrent use.
type LogisticScorer struct {
	model Model
	gate  bool
}

// NewLogisticScorer creates a scorer over the default model.
func NewLogisticScorer(opts ...Option) *LogisticScorer {
	s := &LogisticScorer{
		model: DefaultModel(),
		gate:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the model in use.
func (s *LogisticScorer) Model() Model { return s.model }

// Predict runs the full pipeline: build, standardize, dot product, sigmoid.
func (s *LogisticScorer) Predict(p model.Profile, log model.SymptomLog) Prediction {
	return s.ScoreVector(s.model.Build(p, log))
}

// ScoreVector scores an already built feature vector.
func (s *LogisticScorer) ScoreVector(v Vector) Prediction {
	logit := s.model.Logit(s.model.Standardize(v))
	return Prediction{Probability: Sigmoid(logit), Logit: logit, Vector: v}
}

// Score implements Scorer.
func (s *LogisticScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("score: %w", err)
	}
	if s.gate && !Sufficient(in.Profile) {
		return Result{}, ErrInsufficientData
	}
	return s.Breakdown(in.Profile, in.Log), nil
}

// Sufficient reports whether p carries both an age and a systolic reading.
// Without either the score would rest on fallbacks.
func Sufficient(p model.Profile) bool {
	return p.HasAge() && p.HasSystolic()
}

// Sigmoid is the logistic function 1/(1+e^-x).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
