package domain

import (
	"fmt"
	"math"
)

// Bounds the form widgets enforced on property specs.
const (
	MinAreaSqm     = 10.0
	MaxAreaSqm     = 200.0
	MinBuiltYear   = 1950
	MaxBuiltYear   = ReferenceYear
	MinWalkMinutes = 0
	MaxWalkMinutes = 30
)

type PropertySpec struct {
	AreaSqm     float64
	BuiltYear   int
	WalkMinutes int
	LocationKey string
}

// Validate checks the property against the form bounds.
func (p PropertySpec) Validate() error {
	switch {
	case p.LocationKey == "":
		return ErrNoLocation
	case math.IsNaN(p.AreaSqm) || p.AreaSqm < MinAreaSqm || p.AreaSqm > MaxAreaSqm:
		return fmt.Errorf("%w: area_sqm must be between %.0f and %.0f", ErrInvalidSpec, MinAreaSqm, MaxAreaSqm)
	case p.BuiltYear < MinBuiltYear || p.BuiltYear > MaxBuiltYear:
		return fmt.Errorf("%w: built_year must be between %d and %d", ErrInvalidSpec, MinBuiltYear, MaxBuiltYear)
	case p.WalkMinutes < MinWalkMinutes || p.WalkMinutes > MaxWalkMinutes:
		return fmt.Errorf("%w: walk_minutes must be between %d and %d", ErrInvalidSpec, MinWalkMinutes, MaxWalkMinutes)
	}
	return nil
}

type Confidence string

const (
	ConfidenceNoData Confidence = "no_data"
	ConfidenceLow    Confidence = "low_sample"
	ConfidenceNormal Confidence = "normal"
)

// Estimate is the prediction result returned for one property spec.
type Estimate struct {
	Rent             float64    `json:"rent"`
	RentDisplay      string     `json:"rent_display"`
	LocationKey      string     `json:"location_key"`
	PointLabel       string     `json:"point_label"`
	MatchedUnitPrice float64    `json:"matched_unit_price"`
	SampleCount      int        `json:"sample_count"`
	Fallback         bool       `json:"fallback"`
	Confidence       Confidence `json:"confidence"`
	Caption          string     `json:"caption,omitempty"`
	Features         []float64  `json:"features"`
}

// Point is one selectable location inside a ward.
type Point struct {
	Label       string `json:"label"`
	LocationKey string `json:"location_key"`
	SampleCount int    `json:"sample_count"`
}
