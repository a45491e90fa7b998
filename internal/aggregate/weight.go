package aggregate

import (
	"sort"
	"time"

	"github.com/icastellano/oppanel/internal/model"
)

// WeightFunc assigns the contribution of one record to a weighted rollup.
type WeightFunc func(*model.Record) float64

// CountWeight weighs every record as one row.
func CountWeight(*model.Record) float64 { return 1 }

// QuantityWeight weighs a record as its raw quantity. The pivot always
// aggregates quantities even when charts count rows.
func QuantityWeight(r *model.Record) float64 { return r.Quantity }

// PriceLookup resolves a category label to a unit price. Unknown categories
// resolve to 0 so volume rollups never invent value.
type PriceLookup func(category string) float64

// VolumeWeight weighs a record as quantity times the externally sourced unit
// price of its category.
func VolumeWeight(prices PriceLookup) WeightFunc {
	return func(r *model.Record) float64 {
		if prices == nil {
			return 0
		}
		return r.Quantity * prices(r.Category)
	}
}

// pricePoint is one dated price observation for a category.
type pricePoint struct {
	At    time.Time
	Price float64
}

// PriceIndex derives a per-category unit price from a reference price list:
// the median of observations within the recency window, falling back to the
// most recent observation when the window is empty.
type PriceIndex struct {
	points map[string][]pricePoint
	window time.Duration
}

// DefaultPriceWindow is the recency window for median price selection.
const DefaultPriceWindow = 60 * 24 * time.Hour

// NewPriceIndex creates an empty price index with the given recency window;
// a non-positive window uses DefaultPriceWindow.
func NewPriceIndex(window time.Duration) *PriceIndex {
	if window <= 0 {
		window = DefaultPriceWindow
	}
	return &PriceIndex{
		points: make(map[string][]pricePoint),
		window: window,
	}
}

// Observe records one price observation. Non-positive prices and zero dates
// are ignored.
func (p *PriceIndex) Observe(category string, at time.Time, price float64) {
	if price <= 0 || at.IsZero() {
		return
	}
	p.points[category] = append(p.points[category], pricePoint{At: at, Price: price})
}

// Lookup returns the derived unit price for a category, or 0 when no
// observation exists.
func (p *PriceIndex) Lookup(category string) float64 {
	points := p.points[category]
	if len(points) == 0 {
		return 0
	}

	cutoff := time.Now().Add(-p.window)
	recent := make([]float64, 0, len(points))
	for _, pt := range points {
		if !pt.At.Before(cutoff) {
			recent = append(recent, pt.Price)
		}
	}
	if len(recent) > 0 {
		return Median(recent)
	}

	latest := points[0]
	for _, pt := range points[1:] {
		if pt.At.After(latest.At) {
			latest = pt
		}
	}
	return latest.Price
}

// Categories returns the categories with at least one observation, sorted.
func (p *PriceIndex) Categories() []string {
	out := make([]string, 0, len(p.points))
	for category := range p.points {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}
