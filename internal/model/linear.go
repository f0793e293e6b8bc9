package model

import (
	"fmt"

	"rent_estimator/internal/domain"
)

// Linear is an ordinary least squares model: intercept + sum(coef_i * x_i).
type Linear struct {
	intercept float64
	coef      []float64
}

func newLinear(intercept float64, coef []float64) (*Linear, error) {
	if len(coef) != len(domain.FeatureNames) {
		return nil, fmt.Errorf("%w: linear model has %d coefficients, want %d",
			domain.ErrInvalidArtifact, len(coef), len(domain.FeatureNames))
	}
	return &Linear{intercept: intercept, coef: append([]float64(nil), coef...)}, nil
}

func (m *Linear) Predict(features []float64) (float64, error) {
	if err := checkRow(features); err != nil {
		return 0, err
	}
	y := m.intercept
	for i, x := range features {
		y += m.coef[i] * x
	}
	return finite(y)
}
