package domain

import "sort"

// ReferenceYear is the year building age is measured against.
const ReferenceYear = 2026

// FeatureNames is the column order the model was trained on.
var FeatureNames = []string{"地点平均単価", "専有面積(㎡)", "築年数", "駅徒歩(分)"}

// Bundle is the trained model plus the per-location lookup tables.
// It is built once at startup and only read afterwards.
type Bundle struct {
	Model      Predictor
	PointMean  map[string]float64 // location key -> average unit price
	PointCount map[string]int     // location key -> training samples
	GlobalMean float64            // fallback unit price
	Version    string
}

// UnitPrice reports the table unit price for key and whether it was a hit.
func (b *Bundle) UnitPrice(key string) (float64, bool) {
	v, ok := b.PointMean[key]
	return v, ok
}

// SampleCount returns the number of samples behind key, 0 when unknown.
func (b *Bundle) SampleCount(key string) int {
	return b.PointCount[key]
}

// Keys returns every location key in the mean table, sorted.
func (b *Bundle) Keys() []string {
	out := make([]string, 0, len(b.PointMean))
	for k := range b.PointMean {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Artifact is the stored form of a bundle header.
type Artifact struct {
	Version    string
	GlobalMean float64
	ModelJSON  []byte
	Points     int
	Active     bool
}

// PointStat is one row of the per-location tables.
type PointStat struct {
	LocationKey string
	Ward        string
	UnitPrice   float64
	SampleCount int
}
