package app_test

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"rent_estimator/internal/app"
	"rent_estimator/internal/domain"
)

// ---- fakes ----

type fakeModel struct {
	rent  float64
	err   error
	calls int
	last  []float64
}

func (m *fakeModel) Predict(features []float64) (float64, error) {
	m.calls++
	m.last = append([]float64(nil), features...)
	return m.rent, m.err
}

type fakeCache struct {
	store  map[string]domain.Estimate
	getErr error
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	*dst.(*domain.Estimate) = v
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]domain.Estimate{}
	}
	c.store[key] = v.(domain.Estimate)
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

// ---- tests ----

func TestEstimate_Scenario(t *testing.T) {
	m := &fakeModel{rent: 123456.78}
	svc := app.NewEstimateService(testBundle(m), nil, time.Minute, 5)

	key := app.NormalizeAddress("東京都中央区銀座1丁目")
	est, err := svc.Estimate(context.Background(), domain.PropertySpec{AreaSqm: 25, BuiltYear: 2015, WalkMinutes: 5, LocationKey: key})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if want := []float64{5000, 25, 11, 5}; !reflect.DeepEqual(m.last, want) {
		t.Fatalf("model got %v, want %v", m.last, want)
	}
	if est.Rent != 123456.78 || est.RentDisplay != "123,456 円" {
		t.Fatalf("unexpected rent: %v %q", est.Rent, est.RentDisplay)
	}
	if est.LocationKey != "中央区銀座1丁目" || est.PointLabel != "銀座1丁目" {
		t.Fatalf("unexpected location: %q %q", est.LocationKey, est.PointLabel)
	}
	if est.MatchedUnitPrice != 5000 || est.SampleCount != 12 || est.Fallback {
		t.Fatalf("unexpected match: %+v", est)
	}
	if est.Confidence != domain.ConfidenceNormal || est.Caption != "" {
		t.Fatalf("unexpected confidence: %s %q", est.Confidence, est.Caption)
	}
}

func TestEstimate_UnknownPlace(t *testing.T) {
	m := &fakeModel{rent: 80000}
	b := testBundle(m)
	svc := app.NewEstimateService(b, nil, time.Minute, 5)

	est, err := svc.Estimate(context.Background(), domain.PropertySpec{
		AreaSqm: 25, BuiltYear: 2015, WalkMinutes: 5, LocationKey: app.NormalizeAddress("Unknown Place"),
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if est.MatchedUnitPrice != b.GlobalMean || est.SampleCount != 0 || !est.Fallback {
		t.Fatalf("expected global fallback, got %+v", est)
	}
	if est.Confidence != domain.ConfidenceNoData || est.Caption == "" {
		t.Fatalf("expected no-data caption, got %s %q", est.Confidence, est.Caption)
	}
}

func TestEstimate_LowSample(t *testing.T) {
	svc := app.NewEstimateService(testBundle(&fakeModel{rent: 1}), nil, time.Minute, 5)
	est, err := svc.Estimate(context.Background(), domain.PropertySpec{AreaSqm: 25, BuiltYear: 2015, LocationKey: "中央区銀座2丁目"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if est.Confidence != domain.ConfidenceLow {
		t.Fatalf("expected low_sample, got %s", est.Confidence)
	}
}

func TestEstimate_HitWithoutCount(t *testing.T) {
	// present in the mean table but absent from the count table
	svc := app.NewEstimateService(testBundle(&fakeModel{rent: 1}), nil, time.Minute, 5)
	est, err := svc.Estimate(context.Background(), domain.PropertySpec{AreaSqm: 25, BuiltYear: 2015, LocationKey: "港区六本木"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if est.Fallback || est.MatchedUnitPrice != 6100 || est.SampleCount != 0 || est.Confidence != domain.ConfidenceNoData {
		t.Fatalf("unexpected estimate: %+v", est)
	}
}

func TestEstimate_CacheMissThenHit(t *testing.T) {
	m := &fakeModel{rent: 100000}
	cache := &fakeCache{}
	svc := app.NewEstimateService(testBundle(m), cache, 10*time.Minute, 5)
	spec := domain.PropertySpec{AreaSqm: 30, BuiltYear: 2000, WalkMinutes: 8, LocationKey: "世田谷区三宿1丁目"}

	if _, err := svc.Estimate(context.Background(), spec); err != nil {
		t.Fatalf("err: %v", err)
	}
	m.rent = 999
	est, err := svc.Estimate(context.Background(), spec)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if m.calls != 1 || est.Rent != 100000 {
		t.Fatalf("expected cached estimate, calls=%d rent=%v", m.calls, est.Rent)
	}

	// a different area is a different cache entry
	spec.AreaSqm = 30.5
	if _, err := svc.Estimate(context.Background(), spec); err != nil {
		t.Fatalf("err: %v", err)
	}
	if m.calls != 2 {
		t.Fatalf("expected second model call, got %d", m.calls)
	}
}

func TestEstimate_CacheReadErrorComputes(t *testing.T) {
	m := &fakeModel{rent: 80000}
	cache := &fakeCache{getErr: errors.New("decode cached estimate: unexpected end of JSON input")}
	svc := app.NewEstimateService(testBundle(m), cache, time.Minute, 5)

	est, err := svc.Estimate(context.Background(), domain.PropertySpec{AreaSqm: 25, BuiltYear: 2015, LocationKey: "港区六本木"})
	if err != nil {
		t.Fatalf("cache read errors must not fail the estimate: %v", err)
	}
	if m.calls != 1 || est.Rent != 80000 {
		t.Fatalf("expected computed estimate, calls=%d rent=%v", m.calls, est.Rent)
	}
	if len(cache.store) != 1 {
		t.Fatalf("computed estimate should be written back, store=%v", cache.store)
	}
}

func TestEstimate_InvalidSpec(t *testing.T) {
	m := &fakeModel{}
	svc := app.NewEstimateService(testBundle(m), nil, time.Minute, 5)
	cases := []struct {
		spec domain.PropertySpec
		want error
	}{
		{domain.PropertySpec{AreaSqm: 25, BuiltYear: 2015}, domain.ErrNoLocation},
		{domain.PropertySpec{AreaSqm: 9.9, BuiltYear: 2015, LocationKey: "k"}, domain.ErrInvalidSpec},
		{domain.PropertySpec{AreaSqm: 201, BuiltYear: 2015, LocationKey: "k"}, domain.ErrInvalidSpec},
		{domain.PropertySpec{AreaSqm: math.NaN(), BuiltYear: 2015, LocationKey: "k"}, domain.ErrInvalidSpec},
		{domain.PropertySpec{AreaSqm: math.Inf(1), BuiltYear: 2015, LocationKey: "k"}, domain.ErrInvalidSpec},
		{domain.PropertySpec{AreaSqm: 25, BuiltYear: 1949, LocationKey: "k"}, domain.ErrInvalidSpec},
		{domain.PropertySpec{AreaSqm: 25, BuiltYear: 2027, LocationKey: "k"}, domain.ErrInvalidSpec},
		{domain.PropertySpec{AreaSqm: 25, BuiltYear: 2015, WalkMinutes: 31, LocationKey: "k"}, domain.ErrInvalidSpec},
		{domain.PropertySpec{AreaSqm: 25, BuiltYear: 2015, WalkMinutes: -1, LocationKey: "k"}, domain.ErrInvalidSpec},
	}
	for _, tc := range cases {
		if _, err := svc.Estimate(context.Background(), tc.spec); !errors.Is(err, tc.want) {
			t.Fatalf("spec %+v: got %v, want %v", tc.spec, err, tc.want)
		}
	}
	if m.calls != 0 {
		t.Fatalf("model must not run for invalid specs")
	}
}

func TestEstimate_ModelError(t *testing.T) {
	boom := errors.New("boom")
	svc := app.NewEstimateService(testBundle(&fakeModel{err: boom}), &fakeCache{}, time.Minute, 5)
	_, err := svc.Estimate(context.Background(), domain.PropertySpec{AreaSqm: 25, BuiltYear: 2015, LocationKey: "港区六本木"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped model error, got %v", err)
	}
}

func TestFormatYen(t *testing.T) {
	cases := map[float64]string{
		0:          "0 円",
		999.99:     "999 円",
		123456.9:   "123,456 円",
		1234567.01: "1,234,567 円",
	}
	for in, want := range cases {
		if got := app.FormatYen(in); got != want {
			t.Fatalf("FormatYen(%v) = %q, want %q", in, got, want)
		}
	}
}
