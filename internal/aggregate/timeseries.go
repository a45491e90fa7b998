package aggregate

import (
	"time"

	"github.com/icastellano/oppanel/internal/model"
	"github.com/icastellano/oppanel/internal/store"
)

// Granularity is the period width of a time series bucket.
type Granularity string

// Supported granularities.
const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

func periodLabel(t time.Time, g Granularity) string {
	if g == GranularityDay {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01")
}

// TimeSeries groups records by opening date truncated to the granularity and
// tallies each bucket by status. Every period spanned by the domain is
// emitted, zero-filled, so consumers can render a continuous axis. Undated
// records contribute nothing.
func TimeSeries(records []model.Record, domain store.Domain, g Granularity) model.TimeSeries {
	if domain.Len() == 0 {
		return model.TimeSeries{}
	}
	if g != GranularityDay {
		g = GranularityMonth
	}

	counts := make(map[string]map[model.Status]int)
	for i := range records {
		if records[i].OpenDate.IsZero() {
			continue
		}
		label := periodLabel(records[i].OpenDate, g)
		if counts[label] == nil {
			counts[label] = make(map[model.Status]int)
		}
		counts[label][records[i].Status]++
	}

	series := make(model.TimeSeries, 0, domain.Len())
	for _, label := range spanPeriods(domain.Min(), domain.Max(), g) {
		bucket := model.TimeSeriesBucket{
			Period: label,
			Counts: map[model.Status]int{
				model.StatusEmergency: 0,
				model.StatusRegular:   0,
			},
		}
		for status, n := range counts[label] {
			bucket.Counts[status] = n
		}
		series = append(series, bucket)
	}
	return series
}

// spanPeriods enumerates every period label between min and max inclusive.
func spanPeriods(min, max time.Time, g Granularity) []string {
	var labels []string
	switch g {
	case GranularityDay:
		for t := min; !t.After(max); t = t.AddDate(0, 0, 1) {
			labels = append(labels, periodLabel(t, g))
		}
	default:
		t := time.Date(min.Year(), min.Month(), 1, 0, 0, 0, 0, min.Location())
		end := time.Date(max.Year(), max.Month(), 1, 0, 0, 0, 0, max.Location())
		for ; !t.After(end); t = t.AddDate(0, 1, 0) {
			labels = append(labels, periodLabel(t, g))
		}
	}
	return labels
}
