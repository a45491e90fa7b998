package model

// TimeSeriesBucket is one period of the opening-date time series with a
// per-status tally.
type TimeSeriesBucket struct {
	Period string
	Counts map[Status]int
}

// Total sums the bucket's per-status counts.
func (b TimeSeriesBucket) Total() int {
	total := 0
	for _, n := range b.Counts {
		total += n
	}
	return total
}

// TimeSeries is an ordered sequence of period buckets covering the active
// date domain, periods ascending, gaps zero-filled.
type TimeSeries []TimeSeriesBucket

// RankingEntry is one label with its aggregated weight.
type RankingEntry struct {
	Label  string
	Weight float64
}

// CategoryRanking is a top-N list of labels sorted descending by weight,
// ties broken by first-seen order.
type CategoryRanking []RankingEntry

// TotalWeight sums the ranking's weights.
func (r CategoryRanking) TotalWeight() float64 {
	total := 0.0
	for _, entry := range r {
		total += entry.Weight
	}
	return total
}

// GeoRollup maps normalized geography keys to counts. Its values always sum
// to the size of the filtered record set; unmatched names are counted under
// normalize.GeographyUnknown.
type GeoRollup map[string]int

// Total sums the rollup's counts, including the unknown bucket.
func (g GeoRollup) Total() int {
	total := 0
	for _, n := range g {
		total += n
	}
	return total
}

// PivotRow is one category row of the month pivot: twelve cells, January
// first, each the reduced value of that calendar month's bucket.
type PivotRow struct {
	Category string
	Cells    [12]float64
}

// PivotMatrix crosses the top-K categories with the twelve calendar months.
type PivotMatrix struct {
	Rows []PivotRow
}

// StatusShare tallies the filtered set by status.
type StatusShare map[Status]int

// BuyerStatusEntry is one buyer with per-status counts.
type BuyerStatusEntry struct {
	Label  string
	Counts map[Status]int
	Total  int
}

// BuyerStatusRanking is a top-N list of buyers, per-status counts attached,
// sorted descending by total.
type BuyerStatusRanking []BuyerStatusEntry

// KPIs is the headline summary of the filtered set.
type KPIs struct {
	Records    int
	Buyers     int
	Processes  int
	Categories int
	Volume     float64
}
