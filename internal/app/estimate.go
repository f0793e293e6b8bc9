package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"rent_estimator/internal/domain"
)

const (
	captionNoData = "No direct data for this location; the global average unit price was used."
	captionLow    = "Few samples for this location; treat the estimate as rough."
)

var yen = message.NewPrinter(language.Japanese)

type EstimateService struct {
	bundle    *domain.Bundle
	cache     domain.Cache
	cacheTTL  time.Duration
	lowSample int
}

// NewEstimateService wires the read-only bundle into the service. cache may
// be nil. Sample counts below lowSample are reported as low confidence.
func NewEstimateService(b *domain.Bundle, c domain.Cache, ttl time.Duration, lowSample int) *EstimateService {
	return &EstimateService{bundle: b, cache: c, cacheTTL: ttl, lowSample: lowSample}
}

func (s *EstimateService) Estimate(ctx context.Context, p domain.PropertySpec) (domain.Estimate, error) {
	if err := p.Validate(); err != nil {
		return domain.Estimate{}, err
	}

	key := s.cacheKey(p)
	var est domain.Estimate
	if s.cache != nil {
		ok, err := s.cache.Get(ctx, key, &est)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("estimate cache get failed")
		}
		if ok {
			return est, nil
		}
	}

	f := AssembleFeatures(p, s.bundle)
	rent, err := s.bundle.Model.Predict(f.Vector)
	if err != nil {
		return domain.Estimate{}, fmt.Errorf("predict %q: %w", p.LocationKey, err)
	}

	est = domain.Estimate{
		Rent:             rent,
		RentDisplay:      FormatYen(rent),
		LocationKey:      p.LocationKey,
		PointLabel:       PointLabel(p.LocationKey),
		MatchedUnitPrice: f.UnitPrice,
		SampleCount:      f.SampleCount,
		Fallback:         !f.Hit,
		Features:         f.Vector,
	}
	est.Confidence, est.Caption = s.confidence(f)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, est, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("estimate cache set failed")
		}
	}
	return est, nil
}

func (s *EstimateService) confidence(f Features) (domain.Confidence, string) {
	switch {
	case !f.Hit || f.SampleCount == 0:
		return domain.ConfidenceNoData, captionNoData
	case f.SampleCount < s.lowSample:
		return domain.ConfidenceLow, captionLow
	default:
		return domain.ConfidenceNormal, ""
	}
}

// cacheKey is namespaced by bundle version so a new artifact never serves
// stale estimates.
func (s *EstimateService) cacheKey(p domain.PropertySpec) string {
	return fmt.Sprintf("estimate:%s:%s:%g:%d:%d", s.bundle.Version, p.LocationKey, p.AreaSqm, p.BuiltYear, p.WalkMinutes)
}

// FormatYen renders a rent the way the form shows it: truncated to whole
// yen with thousands separators.
func FormatYen(rent float64) string {
	return yen.Sprintf("%d 円", int64(rent))
}
