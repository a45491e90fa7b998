package aggregate

import (
	"github.com/icastellano/oppanel/internal/model"
)

// DefaultPivotRows is the pivot truncation used when a consumer does not
// ask for a specific row count.
const DefaultPivotRows = 20

// PivotMatrix crosses the top-K categories by total weight with the twelve
// calendar months. Each cell collapses the (category, month) bucket across
// all years present with the requested reducer:
//
//   - ReducerMean: per-(year,month) weight totals, averaged over the years
//     that have data for that month.
//   - ReducerMedian: median of the raw per-record quantities in that month.
//
// Empty buckets reduce to 0. Undated records contribute nothing.
func PivotMatrix(records []model.Record, weight WeightFunc, topK int, reducer ReducerKind) model.PivotMatrix {
	if weight == nil {
		weight = CountWeight
	}
	if topK <= 0 {
		topK = DefaultPivotRows
	}

	ranking := CategoryRanking(records, weight, topK)
	if len(ranking) == 0 {
		return model.PivotMatrix{Rows: []model.PivotRow{}}
	}

	type yearMonth struct {
		year  int
		month int
	}
	// Per category: per-(year,month) weight totals and raw quantity buckets.
	sums := make(map[string]map[yearMonth]float64)
	raw := make(map[string][12][]float64)

	for i := range records {
		r := &records[i]
		if r.OpenDate.IsZero() {
			continue
		}
		ym := yearMonth{year: r.OpenDate.Year(), month: int(r.OpenDate.Month())}

		if sums[r.Category] == nil {
			sums[r.Category] = make(map[yearMonth]float64)
		}
		sums[r.Category][ym] += weight(r)

		buckets := raw[r.Category]
		buckets[ym.month-1] = append(buckets[ym.month-1], r.Quantity)
		raw[r.Category] = buckets
	}

	rows := make([]model.PivotRow, 0, len(ranking))
	for _, entry := range ranking {
		row := model.PivotRow{Category: entry.Label}
		for month := 1; month <= 12; month++ {
			switch reducer {
			case ReducerMedian:
				buckets := raw[entry.Label]
				row.Cells[month-1] = Median(buckets[month-1])
			default:
				total := 0.0
				years := 0
				for ym, sum := range sums[entry.Label] {
					if ym.month == month {
						total += sum
						years++
					}
				}
				if years > 0 {
					row.Cells[month-1] = total / float64(years)
				}
			}
		}
		rows = append(rows, row)
	}

	return model.PivotMatrix{Rows: rows}
}
