package artifact_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"rent_estimator/internal/adapters/artifact"
	"rent_estimator/internal/domain"
)

func TestLoadFile(t *testing.T) {
	b, err := artifact.LoadFile(filepath.Join("testdata", "rent_model.json"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if b.GlobalMean != 3500 || len(b.PointMean) != 4 || b.SampleCount("中央区銀座1丁目") != 12 {
		t.Fatalf("unexpected bundle: %+v", b)
	}
	if len(b.Version) != 40 {
		t.Fatalf("expected sha1 version, got %q", b.Version)
	}

	// 8000 + 0.9*5000 + 2600*25 - 450*11 - 700*5
	got, err := b.Model.Predict([]float64{5000, 25, 11, 5})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if want := 8000 + 4500 + 65000 - 4950 - 3500.0; got != want {
		t.Fatalf("prediction = %v, want %v", got, want)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := artifact.LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"model":`,
		"no model":        `{"global_mean_unit_price": 3500}`,
		"zero global":     `{"model":{"type":"linear","coefficients":[1,1,1,1]},"global_mean_unit_price":0}`,
		"negative count":  `{"model":{"type":"linear","coefficients":[1,1,1,1]},"global_mean_unit_price":1,"point_count":{"a":-1}}`,
		"bad model shape": `{"model":{"type":"linear","coefficients":[1]},"global_mean_unit_price":1}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			d, err := artifact.Parse([]byte(raw))
			if err == nil {
				_, err = d.Bundle()
			}
			if !errors.Is(err, domain.ErrInvalidArtifact) {
				t.Fatalf("expected ErrInvalidArtifact, got %v", err)
			}
		})
	}
}

func TestParse_VersionTracksContent(t *testing.T) {
	a, _ := artifact.Parse([]byte(`{"global_mean_unit_price": 1}`))
	b, _ := artifact.Parse([]byte(`{"global_mean_unit_price": 2}`))
	if a.Version == b.Version {
		t.Fatalf("different content must give different versions")
	}
}

type memRepo struct {
	a    domain.Artifact
	rows []domain.PointStat
	err  error
}

func (m *memRepo) UpsertArtifact(ctx context.Context, a domain.Artifact) error { return nil }
func (m *memRepo) UpsertPointStats(ctx context.Context, v string, ps []domain.PointStat) error {
	return nil
}
func (m *memRepo) Activate(ctx context.Context, v string) error { return nil }
func (m *memRepo) GetActiveArtifact(ctx context.Context) (domain.Artifact, error) {
	return m.a, m.err
}
func (m *memRepo) ListPointStats(ctx context.Context, v string) ([]domain.PointStat, error) {
	return m.rows, nil
}

func TestLoadStore(t *testing.T) {
	d, err := artifact.ReadFile(filepath.Join("testdata", "rent_model.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	repo := &memRepo{
		a: d.Header(),
		rows: []domain.PointStat{
			{LocationKey: "中央区銀座1丁目", Ward: "中央区", UnitPrice: 5000, SampleCount: 12},
			{LocationKey: "中央区銀座2丁目", Ward: "中央区", UnitPrice: 4800, SampleCount: 3},
			{LocationKey: "世田谷区三宿1丁目", Ward: "世田谷区", UnitPrice: 3200, SampleCount: 40},
			{LocationKey: "港区六本木", Ward: "港区", UnitPrice: 6100, SampleCount: 25},
		},
	}
	b, err := artifact.LoadStore(context.Background(), repo)
	if err != nil {
		t.Fatalf("LoadStore: %v", err)
	}
	if b.Version != d.Version || b.GlobalMean != 3500 {
		t.Fatalf("unexpected bundle header: %s %v", b.Version, b.GlobalMean)
	}
	if p, ok := b.UnitPrice("港区六本木"); !ok || p != 6100 {
		t.Fatalf("unexpected unit price %v %v", p, ok)
	}

	// partially imported artifacts are rejected
	repo.rows = repo.rows[:2]
	if _, err := artifact.LoadStore(context.Background(), repo); !errors.Is(err, domain.ErrInvalidArtifact) {
		t.Fatalf("expected ErrInvalidArtifact, got %v", err)
	}

	repo.err = domain.ErrNotFound
	if _, err := artifact.LoadStore(context.Background(), repo); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
