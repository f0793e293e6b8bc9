// Package artifact loads the trained model bundle from a JSON file or from
// the artifact store.
package artifact

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"rent_estimator/internal/domain"
	"rent_estimator/internal/model"
)

// Document is the serialized bundle as written by the training job.
type Document struct {
	Model      json.RawMessage    `json:"model"`
	PointMean  map[string]float64 `json:"point_mean"`
	PointCount map[string]int     `json:"point_count"`
	GlobalMean float64            `json:"global_mean_unit_price"`

	// Version is the sha1 of the file contents.
	Version string `json:"-"`
}

func ReadFile(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read artifact %q: %w", path, err)
	}
	return Parse(b)
}

func Parse(b []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return Document{}, fmt.Errorf("%w: decode bundle: %v", domain.ErrInvalidArtifact, err)
	}
	sum := sha1.Sum(b)
	d.Version = hex.EncodeToString(sum[:])
	return d, nil
}

// Bundle validates the document and decodes its model.
func (d Document) Bundle() (*domain.Bundle, error) {
	if err := validateTables(d.GlobalMean, d.PointMean, d.PointCount); err != nil {
		return nil, err
	}
	m, err := model.Decode(d.Model)
	if err != nil {
		return nil, err
	}
	mean := d.PointMean
	if mean == nil {
		mean = map[string]float64{}
	}
	count := d.PointCount
	if count == nil {
		count = map[string]int{}
	}
	return &domain.Bundle{
		Model:      m,
		PointMean:  mean,
		PointCount: count,
		GlobalMean: d.GlobalMean,
		Version:    d.Version,
	}, nil
}

// Header is the artifact row the importer writes for this document.
func (d Document) Header() domain.Artifact {
	return domain.Artifact{
		Version:    d.Version,
		GlobalMean: d.GlobalMean,
		ModelJSON:  []byte(d.Model),
		Points:     len(d.PointMean),
	}
}

// LoadFile reads and validates a bundle file in one step.
func LoadFile(path string) (*domain.Bundle, error) {
	d, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return d.Bundle()
}

// LoadStore builds the bundle from the active artifact in the store.
func LoadStore(ctx context.Context, repo domain.ArtifactRepository) (*domain.Bundle, error) {
	a, err := repo.GetActiveArtifact(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active artifact: %w", err)
	}
	rows, err := repo.ListPointStats(ctx, a.Version)
	if err != nil {
		return nil, fmt.Errorf("list point stats for %s: %w", a.Version, err)
	}

	mean := make(map[string]float64, len(rows))
	count := make(map[string]int, len(rows))
	for _, r := range rows {
		mean[r.LocationKey] = r.UnitPrice
		count[r.LocationKey] = r.SampleCount
	}
	if a.Points != len(rows) {
		return nil, fmt.Errorf("%w: artifact %s has %d of %d points", domain.ErrInvalidArtifact, a.Version, len(rows), a.Points)
	}
	if err := validateTables(a.GlobalMean, mean, count); err != nil {
		return nil, err
	}
	m, err := model.Decode(a.ModelJSON)
	if err != nil {
		return nil, err
	}
	return &domain.Bundle{Model: m, PointMean: mean, PointCount: count, GlobalMean: a.GlobalMean, Version: a.Version}, nil
}

func validateTables(global float64, mean map[string]float64, count map[string]int) error {
	if math.IsNaN(global) || math.IsInf(global, 0) || global <= 0 {
		return fmt.Errorf("%w: global_mean_unit_price must be a positive number", domain.ErrInvalidArtifact)
	}
	for k, v := range mean {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: point_mean[%q] is not finite", domain.ErrInvalidArtifact, k)
		}
	}
	for k, n := range count {
		if n < 0 {
			return fmt.Errorf("%w: point_count[%q] is negative", domain.ErrInvalidArtifact, k)
		}
	}
	return nil
}
