// Package aggregate computes the statistical projections the dashboard
// renders: a time series, category rankings, a geographic rollup and a
// month-by-category pivot. Every projection is recomputed in full from the
// filtered record set; none depends on another's output.
package aggregate

import "sort"

// ReducerKind selects the statistic that collapses a pivot bucket.
type ReducerKind string

// Reducers supported by the pivot matrix.
const (
	// ReducerMean averages per-(year,month) totals across the years present.
	ReducerMean ReducerKind = "mean"
	// ReducerMedian takes the median of the raw per-record quantities.
	ReducerMedian ReducerKind = "median"
)

// Median returns the statistical median of values: the middle element of the
// sorted bucket, averaging the two central values when the size is even. An
// empty bucket reduces to 0, never to a sentinel, so downstream formatting
// stays uniform. The input slice is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	half := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[half]
	}
	return (sorted[half-1] + sorted[half]) / 2
}
