// Package model decodes and evaluates the trained rent regression model.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"rent_estimator/internal/domain"
)

const (
	TypeLinear       = "linear"
	TypeTreeEnsemble = "tree_ensemble"
)

// spec is the serialized form of every supported model type.
type spec struct {
	Type         string       `json:"type"`
	FeatureNames []string     `json:"feature_names"`
	Intercept    float64      `json:"intercept"`
	Coefficients []float64    `json:"coefficients"`
	BaseScore    float64      `json:"base_score"`
	Aggregation  string       `json:"aggregation"`
	LearningRate *float64     `json:"learning_rate"`
	Trees        [][]TreeNode `json:"trees"`
}

var errBadOutput = errors.New("model produced a non-finite value")

// Decode builds a Predictor from its JSON form. The model must take exactly
// the features in domain.FeatureNames, in that order.
func Decode(raw []byte) (domain.Predictor, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: model is missing", domain.ErrInvalidArtifact)
	}
	var s spec
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: decode model: %v", domain.ErrInvalidArtifact, err)
	}
	if err := checkFeatureNames(s.FeatureNames); err != nil {
		return nil, err
	}

	switch s.Type {
	case TypeLinear:
		return newLinear(s.Intercept, s.Coefficients)
	case TypeTreeEnsemble:
		lr := 1.0
		if s.LearningRate != nil {
			lr = *s.LearningRate
		}
		return newTreeEnsemble(s.Trees, s.BaseScore, lr, s.Aggregation)
	default:
		return nil, fmt.Errorf("%w: unknown model type %q", domain.ErrInvalidArtifact, s.Type)
	}
}

// checkFeatureNames accepts an absent list; a present one must match exactly.
func checkFeatureNames(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != len(domain.FeatureNames) {
		return fmt.Errorf("%w: model expects %d features, want %d", domain.ErrInvalidArtifact, len(names), len(domain.FeatureNames))
	}
	for i, n := range names {
		if n != domain.FeatureNames[i] {
			return fmt.Errorf("%w: feature %d is %q, want %q", domain.ErrInvalidArtifact, i, n, domain.FeatureNames[i])
		}
	}
	return nil
}

func checkRow(features []float64) error {
	if len(features) != len(domain.FeatureNames) {
		return fmt.Errorf("expected %d features, got %d", len(domain.FeatureNames), len(features))
	}
	return nil
}

func finite(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errBadOutput
	}
	return v, nil
}
