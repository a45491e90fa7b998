// Package engine orchestrates the record store, filter state and decision
// overlay into a closed recompute loop: any filter mutation produces a
// fresh set of projections, published to subscribers as one immutable
// snapshot.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/icastellano/oppanel/internal/aggregate"
	"github.com/icastellano/oppanel/internal/common"
	"github.com/icastellano/oppanel/internal/decision"
	"github.com/icastellano/oppanel/internal/feed"
	"github.com/icastellano/oppanel/internal/filter"
	"github.com/icastellano/oppanel/internal/geo"
	"github.com/icastellano/oppanel/internal/model"
	"github.com/icastellano/oppanel/internal/normalize"
	"github.com/icastellano/oppanel/internal/store"
)

// WeightMode selects how rankings and pivots weigh each record.
type WeightMode string

// Weight modes.
const (
	WeightCount  WeightMode = "count"
	WeightVolume WeightMode = "volume"
)

// Config holds the projection parameters of an engine.
type Config struct {
	Granularity aggregate.Granularity
	WeightMode  WeightMode
	Prices      aggregate.PriceLookup
	TopN        int
	PivotRows   int
}

// DefaultConfig returns the default projection parameters.
func DefaultConfig() Config {
	return Config{
		Granularity: aggregate.GranularityMonth,
		WeightMode:  WeightCount,
		TopN:        aggregate.DefaultTopN,
		PivotRows:   aggregate.DefaultPivotRows,
	}
}

// Projections is the full set of aggregates computed per recompute.
type Projections struct {
	TimeSeries  model.TimeSeries
	Categories  model.CategoryRanking
	Buyers      model.CategoryRanking
	Geography   model.GeoRollup
	PivotMean   model.PivotMatrix
	PivotMedian model.PivotMatrix
	StatusShare model.StatusShare
	BuyerStatus model.BuyerStatusRanking
	KPIs        model.KPIs
}

// Snapshot is the engine's published state after one recompute. It is a
// value: consumers may hold it across later recomputes.
type Snapshot struct {
	Filter        model.FilterState
	Projections   Projections
	FilteredCount int
	TotalRecords  int
	DroppedDates  int
	Generation    uint64
	Stale         bool
}

// Listener receives every published snapshot.
type Listener func(Snapshot)

// Engine is one dashboard's aggregation engine. Construct one per view
// and hand it to consumers; it holds no ambient global state.
type Engine struct {
	mu        sync.Mutex
	records   *store.RecordStore
	state     model.FilterState
	overlay   *decision.Overlay
	source    RecordSource
	geoSource GeoSource
	config    Config
	snapshot  Snapshot
	listeners []Listener
	stale     bool

	// Server-computed aggregates, kept when the feed answers with
	// dimension tables instead of raw records. They stand in for the
	// local projections until a record payload arrives.
	serverDims  *feed.DimensionSet
	serverTotal int

	generation atomic.Uint64
}

// New creates an engine over the given store and overlay. Source and
// geoSource may be nil for purely local datasets.
func New(cfg Config, records *store.RecordStore, overlay *decision.Overlay, source RecordSource, geoSource GeoSource) *Engine {
	if cfg.Granularity == "" {
		cfg.Granularity = aggregate.GranularityMonth
	}
	if cfg.TopN <= 0 {
		cfg.TopN = aggregate.DefaultTopN
	}
	if cfg.PivotRows <= 0 {
		cfg.PivotRows = aggregate.DefaultPivotRows
	}
	e := &Engine{
		records:   records,
		overlay:   overlay,
		source:    source,
		geoSource: geoSource,
		config:    cfg,
	}
	e.mu.Lock()
	e.recomputeLocked()
	e.mu.Unlock()
	return e
}

// Subscribe registers a listener for future snapshots.
func (e *Engine) Subscribe(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Snapshot returns the engine's current published state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot
}

// Domain returns the store's current date domain.
func (e *Engine) Domain() store.Domain {
	return e.records.Domain()
}

// FilteredRecords evaluates the active predicate set and returns the
// matching records in store order.
func (e *Engine) FilteredRecords() []model.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return filter.Apply(e.records.All(), e.state, e.overlayLookup())
}

// Decision returns the overlay annotation for a record key, if any.
func (e *Engine) Decision(key string) (model.Decision, bool) {
	if e.overlay == nil {
		return "", false
	}
	return e.overlay.Get(key)
}

// Filter returns the active filter state.
func (e *Engine) Filter() model.FilterState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Dispatch applies one filter mutation and recomputes. Every successful
// mutation publishes a snapshot to subscribers.
func (e *Engine) Dispatch(event Event) {
	e.mu.Lock()

	switch ev := event.(type) {
	case FacetActivated:
		// Second activation of the active value deselects it.
		if e.state.FacetValue(ev.Facet) == ev.Value {
			e.state.SetFacetValue(ev.Facet, "")
		} else {
			e.state.SetFacetValue(ev.Facet, ev.Value)
		}
	case SelectionSet:
		e.state.SetFacetValue(ev.Facet, ev.Value)
	case AccountSet:
		e.state.Account = ev.Value
	case RangeSet:
		e.state.From = ev.From
		e.state.To = ev.To
	case SearchSet:
		e.state.Search = ev.Query
	case StatusSet:
		e.state.Status = ev.Status
	case BuyerClassSet:
		e.state.BuyerClass = ev.Class
	case DecisionFilterSet:
		e.state.Decision = ev.Filter
	case FiltersCleared:
		e.state = model.FilterState{}
	default:
		e.mu.Unlock()
		return
	}

	e.recomputeLocked()
	e.publishLocked()
}

// OnFacetActivated is the inbound cross-filter call for the render
// adapter. A category clicked in a ranking panel and the same category
// clicked in a pivot cell both land here.
func (e *Engine) OnFacetActivated(facet model.Facet, value string) {
	e.Dispatch(FacetActivated{Facet: facet, Value: value})
}

// MarkDecision annotates a record and recomputes. Marking with the
// record's current annotation removes it.
func (e *Engine) MarkDecision(ctx context.Context, key string, d model.Decision) {
	if e.overlay == nil {
		return
	}
	e.overlay.Set(ctx, key, d)
	e.mu.Lock()
	e.recomputeLocked()
	e.publishLocked()
}

// Refresh fetches the record set for the active filter state and replaces
// the store. The fetch is guarded by a generation counter: if another
// refresh starts before this one's response lands, the stale payload is
// discarded. On fetch failure the last good projections stay published,
// flagged stale.
func (e *Engine) Refresh(ctx context.Context) error {
	if e.source == nil {
		return fmt.Errorf("%w: no record source configured", common.ErrMissingConfig)
	}

	gen := e.generation.Add(1)
	fs := e.Filter()
	var marks map[string]model.Decision
	if e.overlay != nil {
		marks = e.overlay.All()
	}

	payload, err := e.source.Fetch(ctx, fs, marks)
	if err != nil {
		e.mu.Lock()
		e.stale = true
		e.recomputeLocked()
		e.publishLocked()
		return err
	}

	e.mu.Lock()
	if e.generation.Load() != gen {
		e.mu.Unlock()
		slog.Debug("Discarding stale feed response", "generation", gen)
		return common.ErrStaleResponse
	}

	if payload.HasRecords() {
		e.records.Load(payload.Records)
		e.serverDims = nil
		e.serverTotal = 0
	} else if payload.Dimensions != nil {
		// The feed switched to server aggregates; any rows loaded earlier
		// describe a superseded query and must not win the snapshot.
		e.records.Load(nil)
		e.serverDims = payload.Dimensions
		e.serverTotal = payload.TotalRows
	}
	e.stale = false
	e.recomputeLocked()
	e.publishLocked()
	return nil
}

// Geography loads the boundary reference, generation-guarded the same way
// as Refresh so an outdated response never reaches the caller after a
// newer fetch began.
func (e *Engine) Geography(ctx context.Context) (*geo.Reference, error) {
	if e.geoSource == nil {
		return nil, fmt.Errorf("%w: no geography source configured", common.ErrMissingConfig)
	}
	gen := e.generation.Load()
	ref, err := e.geoSource.Reference(ctx)
	if err != nil {
		return nil, err
	}
	if e.generation.Load() != gen {
		return nil, common.ErrStaleResponse
	}
	return ref, nil
}

// recomputeLocked rebuilds every projection from the current inputs. Must
// hold e.mu.
func (e *Engine) recomputeLocked() {
	all := e.records.All()
	filtered := filter.Apply(all, e.state, e.overlayLookup())

	weight := aggregate.CountWeight
	pivotWeight := aggregate.QuantityWeight
	prices := e.config.Prices
	if prices == nil {
		prices = func(string) float64 { return 0 }
	}
	if e.config.WeightMode == WeightVolume {
		weight = aggregate.VolumeWeight(prices)
		pivotWeight = weight
	}

	e.snapshot = Snapshot{
		Filter: e.state,
		Projections: Projections{
			TimeSeries:  aggregate.TimeSeries(filtered, e.records.Domain(), e.config.Granularity),
			Categories:  aggregate.CategoryRanking(filtered, weight, e.config.TopN),
			Buyers:      aggregate.BuyerRanking(filtered, weight, e.config.TopN),
			Geography:   aggregate.GeoRollup(filtered),
			PivotMean:   aggregate.PivotMatrix(filtered, pivotWeight, e.config.PivotRows, aggregate.ReducerMean),
			PivotMedian: aggregate.PivotMatrix(filtered, pivotWeight, e.config.PivotRows, aggregate.ReducerMedian),
			StatusShare: aggregate.StatusShare(filtered),
			BuyerStatus: aggregate.BuyerStatus(filtered, e.config.TopN),
			KPIs:        aggregate.KPIs(filtered, prices),
		},
		FilteredCount: len(filtered),
		TotalRecords:  e.records.Len(),
		DroppedDates:  e.records.Dropped(),
		Generation:    e.generation.Load(),
		Stale:         e.stale,
	}

	if len(all) == 0 && e.serverDims != nil {
		// Dimension-only payloads carry no rows to re-filter locally;
		// the server already applied the query that produced them.
		e.snapshot.Projections = e.serverProjectionsLocked()
		e.snapshot.FilteredCount = e.serverTotal
		e.snapshot.TotalRecords = e.serverTotal
	}
}

// serverProjectionsLocked maps the feed's dimension tables onto the local
// projection types. Pivots stay empty: the upstream never aggregates them.
// Must hold e.mu.
func (e *Engine) serverProjectionsLocked() Projections {
	d := e.serverDims

	series := make(model.TimeSeries, 0, len(d.OpenDates))
	for _, b := range d.OpenDates {
		series = append(series, model.TimeSeriesBucket{
			Period: b.Date,
			Counts: map[model.Status]int{
				model.StatusEmergency: b.Emergency,
				model.StatusRegular:   b.Regular,
			},
		})
	}

	rollup := model.GeoRollup{}
	for _, b := range d.Provinces {
		rollup[normalize.Geography(b.Label)] += b.Count
	}

	share := model.StatusShare{model.StatusEmergency: 0, model.StatusRegular: 0}
	for _, b := range d.Statuses {
		share[model.ParseStatus(b.Status)] += b.Count
	}

	buyerStatus := make(model.BuyerStatusRanking, 0, len(d.BuyerStatus))
	for _, b := range d.BuyerStatus {
		buyerStatus = append(buyerStatus, model.BuyerStatusEntry{
			Label: b.Label,
			Counts: map[model.Status]int{
				model.StatusEmergency: b.Emergency,
				model.StatusRegular:   b.Regular,
			},
			Total: b.Emergency + b.Regular,
		})
	}
	if len(buyerStatus) > e.config.TopN {
		buyerStatus = buyerStatus[:e.config.TopN]
	}

	return Projections{
		TimeSeries:  series,
		Categories:  labelRanking(d.Categories, e.config.TopN),
		Buyers:      labelRanking(d.Buyers, e.config.TopN),
		Geography:   rollup,
		PivotMean:   model.PivotMatrix{Rows: []model.PivotRow{}},
		PivotMedian: model.PivotMatrix{Rows: []model.PivotRow{}},
		StatusShare: share,
		BuyerStatus: buyerStatus,
		KPIs: model.KPIs{
			Records:    e.serverTotal,
			Buyers:     len(d.Buyers),
			Categories: len(d.Categories),
		},
	}
}

func labelRanking(buckets []feed.LabelBucket, topN int) model.CategoryRanking {
	ranking := make(model.CategoryRanking, 0, len(buckets))
	for _, b := range buckets {
		ranking = append(ranking, model.RankingEntry{Label: b.Label, Weight: float64(b.Count)})
	}
	if len(ranking) > topN {
		ranking = ranking[:topN]
	}
	return ranking
}

// publishLocked notifies subscribers and releases e.mu. Listeners run
// outside the lock so they can call back into the engine.
func (e *Engine) publishLocked() {
	snapshot := e.snapshot
	listeners := make([]Listener, len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

func (e *Engine) overlayLookup() filter.DecisionLookup {
	if e.overlay == nil {
		return nil
	}
	return e.overlay
}
