package app

import (
	"sort"
	"strings"

	"rent_estimator/internal/domain"
)

// Catalog groups the bundle's location keys by ward/city marker for the
// selection lists. Keys without a marker are left out.
type Catalog struct {
	wards  []string
	points map[string][]domain.Point
	keys   map[string]string // ward + label -> stored key
}

func NewCatalog(b *domain.Bundle) *Catalog {
	c := &Catalog{points: make(map[string][]domain.Point), keys: make(map[string]string)}
	for _, key := range b.Keys() {
		w := WardOf(key)
		if w == "" {
			continue
		}
		if _, seen := c.points[w]; !seen {
			c.wards = append(c.wards, w)
		}
		label := PointLabel(key)
		if _, dup := c.keys[w+label]; !dup {
			c.keys[w+label] = key
		}
		c.points[w] = append(c.points[w], domain.Point{
			Label:       label,
			LocationKey: key,
			SampleCount: b.SampleCount(key),
		})
	}
	sort.Strings(c.wards)
	return c
}

func (c *Catalog) Wards() []string {
	return append([]string(nil), c.wards...)
}

// Points lists the selectable points of a ward in key order.
func (c *Catalog) Points(ward string) ([]domain.Point, error) {
	ps, ok := c.points[ward]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]domain.Point(nil), ps...), nil
}

// ResolveLocationKey is the package-level ResolveLocationKey, except that a
// ward + point selection is mapped back to the stored key, which may carry
// a prefecture the label hides.
func (c *Catalog) ResolveLocationKey(in LocationInput) string {
	if strings.TrimSpace(in.LocationKey) == "" {
		w, p := strings.TrimSpace(in.Ward), strings.TrimSpace(in.Point)
		if key, ok := c.keys[w+p]; ok && w != "" && p != "" {
			return key
		}
	}
	return ResolveLocationKey(in)
}
