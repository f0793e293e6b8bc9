package domain

import "context"

// Predictor is the trained regression model. Predict takes one row in
// FeatureNames order and returns the predicted monthly rent.
type Predictor interface {
	Predict(features []float64) (float64, error)
}

type ArtifactRepository interface {
	// Write paths
	UpsertArtifact(ctx context.Context, a Artifact) error
	UpsertPointStats(ctx context.Context, version string, ps []PointStat) error
	Activate(ctx context.Context, version string) error

	// Read paths
	GetActiveArtifact(ctx context.Context) (Artifact, error)
	ListPointStats(ctx context.Context, version string) ([]PointStat, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
