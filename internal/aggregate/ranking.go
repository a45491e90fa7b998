package aggregate

import (
	"sort"

	"github.com/icastellano/oppanel/internal/model"
	"github.com/icastellano/oppanel/internal/normalize"
)

// DefaultTopN is the ranking truncation used when a consumer does not ask
// for a specific size.
const DefaultTopN = 10

// CategoryRanking groups records by category label, sums the injected weight
// and returns the top-N entries sorted descending, ties broken by first-seen
// order.
func CategoryRanking(records []model.Record, weight WeightFunc, topN int) model.CategoryRanking {
	return rankBy(records, func(r *model.Record) string { return r.Category }, weight, topN)
}

// BuyerRanking is CategoryRanking keyed by buyer instead of category.
func BuyerRanking(records []model.Record, weight WeightFunc, topN int) model.CategoryRanking {
	return rankBy(records, func(r *model.Record) string { return r.Buyer }, weight, topN)
}

func rankBy(records []model.Record, key func(*model.Record) string, weight WeightFunc, topN int) model.CategoryRanking {
	if weight == nil {
		weight = CountWeight
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	type entry struct {
		weight    float64
		firstSeen int
	}
	totals := make(map[string]*entry)
	order := make([]string, 0)

	for i := range records {
		label := key(&records[i])
		e, ok := totals[label]
		if !ok {
			e = &entry{firstSeen: len(order)}
			totals[label] = e
			order = append(order, label)
		}
		e.weight += weight(&records[i])
	}

	ranking := make(model.CategoryRanking, 0, len(order))
	for _, label := range order {
		ranking = append(ranking, model.RankingEntry{Label: label, Weight: totals[label].weight})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Weight > ranking[j].Weight
	})

	if len(ranking) > topN {
		ranking = ranking[:topN]
	}
	return ranking
}

// GeoRollup counts records per normalized geography key. Values that do not
// canonicalize are retained under normalize.GeographyUnknown, so the
// rollup's total always equals the size of the input.
func GeoRollup(records []model.Record) model.GeoRollup {
	rollup := make(model.GeoRollup)
	for i := range records {
		rollup[normalize.Geography(records[i].Province)]++
	}
	return rollup
}

// StatusShare tallies records by status.
func StatusShare(records []model.Record) model.StatusShare {
	share := model.StatusShare{
		model.StatusEmergency: 0,
		model.StatusRegular:   0,
	}
	for i := range records {
		share[records[i].Status]++
	}
	return share
}

// BuyerStatus returns the top-N buyers by row count with per-status tallies
// attached, sorted descending by total, ties by first-seen order.
func BuyerStatus(records []model.Record, topN int) model.BuyerStatusRanking {
	if topN <= 0 {
		topN = DefaultTopN
	}

	totals := make(map[string]*model.BuyerStatusEntry)
	order := make([]string, 0)

	for i := range records {
		label := records[i].Buyer
		e, ok := totals[label]
		if !ok {
			e = &model.BuyerStatusEntry{
				Label:  label,
				Counts: make(map[model.Status]int),
			}
			totals[label] = e
			order = append(order, label)
		}
		e.Counts[records[i].Status]++
		e.Total++
	}

	ranking := make(model.BuyerStatusRanking, 0, len(order))
	for _, label := range order {
		ranking = append(ranking, *totals[label])
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Total > ranking[j].Total
	})

	if len(ranking) > topN {
		ranking = ranking[:topN]
	}
	return ranking
}

// KPIs summarizes the filtered set: distinct buyers, processes and
// categories, plus total volume when a price lookup is available.
func KPIs(records []model.Record, prices PriceLookup) model.KPIs {
	buyers := make(map[string]struct{})
	processes := make(map[string]struct{})
	categories := make(map[string]struct{})
	volume := 0.0

	for i := range records {
		r := &records[i]
		if r.Buyer != "" {
			buyers[r.Buyer] = struct{}{}
		}
		if id := processKey(r); id != "" {
			processes[id] = struct{}{}
		}
		if r.Category != "" {
			categories[r.Category] = struct{}{}
		}
		if prices != nil {
			volume += r.Quantity * prices(r.Category)
		}
	}

	return model.KPIs{
		Records:    len(records),
		Buyers:     len(buyers),
		Processes:  len(processes),
		Categories: len(categories),
		Volume:     volume,
	}
}

func processKey(r *model.Record) string {
	if r.ProcessID != "" {
		return r.ProcessID
	}
	if r.Account != "" {
		return r.Account
	}
	return r.ID
}
