package app

import (
	"context"
	"fmt"

	"rent_estimator/internal/domain"
)

// ImportService copies a bundle into the artifact store. The artifact row
// is written inactive first, point stats follow in batches, and Activate
// switches readers over once everything is in place.
type ImportService struct {
	repo domain.ArtifactRepository
}

func NewImportService(r domain.ArtifactRepository) *ImportService {
	return &ImportService{repo: r}
}

func (s *ImportService) Begin(ctx context.Context, a domain.Artifact) error {
	if a.Version == "" {
		return fmt.Errorf("%w: artifact version is empty", domain.ErrInvalidArtifact)
	}
	a.Active = false
	if err := s.repo.UpsertArtifact(ctx, a); err != nil {
		return fmt.Errorf("upsert artifact %s: %w", a.Version, err)
	}
	return nil
}

func (s *ImportService) ImportBatch(ctx context.Context, version string, batch []domain.PointStat) error {
	if len(batch) == 0 {
		return nil
	}
	if err := s.repo.UpsertPointStats(ctx, version, batch); err != nil {
		return fmt.Errorf("upsert %d point stats for %s: %w", len(batch), version, err)
	}
	return nil
}

func (s *ImportService) Activate(ctx context.Context, version string) error {
	if err := s.repo.Activate(ctx, version); err != nil {
		return fmt.Errorf("activate %s: %w", version, err)
	}
	return nil
}

// PointStats flattens the bundle tables into rows, sorted by key.
func PointStats(b *domain.Bundle) []domain.PointStat {
	keys := b.Keys()
	out := make([]domain.PointStat, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.PointStat{
			LocationKey: k,
			Ward:        WardOf(k),
			UnitPrice:   b.PointMean[k],
			SampleCount: b.SampleCount(k),
		})
	}
	return out
}

// Batches splits rows into chunks of at most size.
func Batches(rows []domain.PointStat, size int) [][]domain.PointStat {
	if size <= 0 {
		size = 500
	}
	var out [][]domain.PointStat
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}
