package app

import "rent_estimator/internal/domain"

// Features is the assembled model input for one property spec along with
// the lookup results that went into it.
type Features struct {
	Vector      []float64 // domain.FeatureNames order
	UnitPrice   float64
	SampleCount int
	Hit         bool
}

// AssembleFeatures builds [unit_price, area_sqm, age_years, walk_minutes].
// A location key missing from the table falls back to the global mean.
func AssembleFeatures(p domain.PropertySpec, b *domain.Bundle) Features {
	unitPrice, hit := b.UnitPrice(p.LocationKey)
	if !hit {
		unitPrice = b.GlobalMean
	}
	age := domain.ReferenceYear - p.BuiltYear
	return Features{
		Vector:      []float64{unitPrice, p.AreaSqm, float64(age), float64(p.WalkMinutes)},
		UnitPrice:   unitPrice,
		SampleCount: b.SampleCount(p.LocationKey),
		Hit:         hit,
	}
}
