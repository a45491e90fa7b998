package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icastellano/oppanel/internal/common"
	"github.com/icastellano/oppanel/internal/decision"
	"github.com/icastellano/oppanel/internal/feed"
	"github.com/icastellano/oppanel/internal/model"
	"github.com/icastellano/oppanel/internal/store"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testRecords() []model.Record {
	return []model.Record{
		{ID: "1", OpenDate: day(2024, 1, 10), Buyer: "PAMI", Category: "Guantes", Province: "Córdoba", Status: model.StatusEmergency, Quantity: 5},
		{ID: "2", OpenDate: day(2024, 1, 20), Buyer: "Hospital Central", Category: "Barbijos", Province: "Capital Federal", Status: model.StatusRegular, Quantity: 3},
		{ID: "3", OpenDate: day(2024, 2, 5), Buyer: "PAMI", Category: "Guantes", Province: "Córdoba", Status: model.StatusRegular, Quantity: 2},
	}
}

func newTestEngine(t *testing.T, source RecordSource) *Engine {
	t.Helper()
	records := store.New()
	records.Load(testRecords())
	overlay := decision.NewOverlay(context.Background(), nil, "/test")
	return New(DefaultConfig(), records, overlay, source, nil)
}

type scriptedSource struct {
	payloads chan *feed.Payload
	errs     chan error
}

func (s *scriptedSource) Fetch(_ context.Context, _ model.FilterState, _ map[string]model.Decision) (*feed.Payload, error) {
	select {
	case p := <-s.payloads:
		return p, nil
	case err := <-s.errs:
		return nil, err
	}
}

func TestToggleIdempotence(t *testing.T) {
	e := newTestEngine(t, nil)
	original := e.Filter()

	e.OnFacetActivated(model.FacetCategory, "Guantes")
	assert.Equal(t, "Guantes", e.Filter().Category)
	assert.Equal(t, 2, e.Snapshot().FilteredCount)

	e.OnFacetActivated(model.FacetCategory, "Guantes")
	assert.Equal(t, original, e.Filter(), "second activation restores the facet")
	assert.Equal(t, 3, e.Snapshot().FilteredCount)
}

func TestToggleReplacesDifferentValue(t *testing.T) {
	e := newTestEngine(t, nil)

	e.OnFacetActivated(model.FacetCategory, "Guantes")
	e.OnFacetActivated(model.FacetCategory, "Barbijos")
	assert.Equal(t, "Barbijos", e.Filter().Category)
}

func TestToggleUniformAcrossFacets(t *testing.T) {
	e := newTestEngine(t, nil)

	// The same rule applies no matter which projection emitted the click.
	e.OnFacetActivated(model.FacetGeography, "CORDOBA")
	assert.Equal(t, 2, e.Snapshot().FilteredCount)
	e.OnFacetActivated(model.FacetGeography, "CORDOBA")
	assert.Equal(t, 3, e.Snapshot().FilteredCount)
}

func TestDispatchRecomputesProjections(t *testing.T) {
	e := newTestEngine(t, nil)

	e.Dispatch(StatusSet{Status: model.StatusEmergency})
	snap := e.Snapshot()
	assert.Equal(t, 1, snap.FilteredCount)
	assert.Equal(t, 1, snap.Projections.StatusShare[model.StatusEmergency])
	assert.Equal(t, 0, snap.Projections.StatusShare[model.StatusRegular])
	assert.Equal(t, snap.FilteredCount, snap.Projections.Geography.Total())

	e.Dispatch(FiltersCleared{})
	assert.Equal(t, 3, e.Snapshot().FilteredCount)
}

func TestSubscribersReceiveEverySnapshot(t *testing.T) {
	e := newTestEngine(t, nil)

	var got []Snapshot
	e.Subscribe(func(s Snapshot) { got = append(got, s) })

	e.Dispatch(SearchSet{Query: "guantes"})
	e.Dispatch(SearchSet{Query: ""})
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].FilteredCount)
	assert.Equal(t, 3, got[1].FilteredCount)
}

func TestMarkDecisionRecomputes(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	key := (&model.Record{ID: "1", OpenDate: day(2024, 1, 10)}).Key()
	e.MarkDecision(ctx, key, model.DecisionAccepted)

	e.Dispatch(DecisionFilterSet{Filter: model.DecisionFilterAccepted})
	snap := e.Snapshot()
	require.Equal(t, 1, snap.FilteredCount)
	assert.Equal(t, "PAMI", snap.Projections.Buyers[0].Label)

	// Same mark again removes the annotation.
	e.MarkDecision(ctx, key, model.DecisionAccepted)
	assert.Equal(t, 0, e.Snapshot().FilteredCount)
}

func TestRefreshReplacesStore(t *testing.T) {
	source := &scriptedSource{payloads: make(chan *feed.Payload, 1), errs: make(chan error, 1)}
	e := newTestEngine(t, source)

	source.payloads <- &feed.Payload{Records: []model.Record{
		{ID: "9", OpenDate: day(2024, 5, 1), Status: model.StatusRegular},
	}}
	require.NoError(t, e.Refresh(context.Background()))

	snap := e.Snapshot()
	assert.Equal(t, 1, snap.TotalRecords)
	assert.False(t, snap.Stale)
}

func TestRefreshFailureKeepsLastProjections(t *testing.T) {
	source := &scriptedSource{payloads: make(chan *feed.Payload, 1), errs: make(chan error, 1)}
	e := newTestEngine(t, source)
	before := e.Snapshot()

	source.errs <- errors.New("upstream down")
	err := e.Refresh(context.Background())
	require.Error(t, err)

	after := e.Snapshot()
	assert.True(t, after.Stale, "failure is surfaced as a stale view")
	assert.Equal(t, before.Projections, after.Projections, "last good projections survive")
	assert.Equal(t, before.TotalRecords, after.TotalRecords)

	// The next successful refresh clears the flag.
	source.payloads <- &feed.Payload{Records: testRecords()}
	require.NoError(t, e.Refresh(context.Background()))
	assert.False(t, e.Snapshot().Stale)
}

func TestRefreshDiscardsStaleGeneration(t *testing.T) {
	source := &scriptedSource{payloads: make(chan *feed.Payload, 2), errs: make(chan error, 1)}
	e := newTestEngine(t, source)

	fetching := make(chan struct{})
	release := make(chan struct{})
	slow := sourceFunc(func(ctx context.Context, fs model.FilterState) (*feed.Payload, error) {
		close(fetching)
		<-release
		return &feed.Payload{Records: []model.Record{{ID: "stale"}}}, nil
	})
	e.source = slow

	done := make(chan error, 1)
	go func() { done <- e.Refresh(context.Background()) }()
	<-fetching

	// A newer fetch supersedes the in-flight one.
	source.payloads <- &feed.Payload{Records: []model.Record{{ID: "fresh", OpenDate: day(2024, 6, 1)}}}
	e.source = source
	require.NoError(t, e.Refresh(context.Background()))

	close(release)
	err := <-done
	assert.ErrorIs(t, err, common.ErrStaleResponse)

	snap := e.Snapshot()
	require.Equal(t, 1, snap.TotalRecords)
	assert.Equal(t, "fresh", e.records.All()[0].ID, "stale payload never lands")
}

type sourceFunc func(ctx context.Context, fs model.FilterState) (*feed.Payload, error)

func (f sourceFunc) Fetch(ctx context.Context, fs model.FilterState, _ map[string]model.Decision) (*feed.Payload, error) {
	return f(ctx, fs)
}

func TestRefreshWithoutSource(t *testing.T) {
	e := newTestEngine(t, nil)
	err := e.Refresh(context.Background())
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestDefaultPivotWeighsQuantity(t *testing.T) {
	records := store.New()
	records.Load([]model.Record{
		{ID: "1", OpenDate: day(2024, 3, 1), Category: "Insulina", Quantity: 1000},
		{ID: "2", OpenDate: day(2024, 3, 2), Category: "Guantes", Quantity: 1},
		{ID: "3", OpenDate: day(2024, 3, 3), Category: "Guantes", Quantity: 1},
		{ID: "4", OpenDate: day(2024, 3, 4), Category: "Guantes", Quantity: 1},
	})
	cfg := DefaultConfig()
	cfg.PivotRows = 1
	e := New(cfg, records, nil, nil, nil)

	snap := e.Snapshot()
	require.Len(t, snap.Projections.PivotMean.Rows, 1)
	// Pivot rows rank by total quantity even when charts count rows.
	assert.Equal(t, "Insulina", snap.Projections.PivotMean.Rows[0].Category)
	assert.Equal(t, 1000.0, snap.Projections.PivotMean.Rows[0].Cells[2])
	require.NotEmpty(t, snap.Projections.Categories)
	assert.Equal(t, "Guantes", snap.Projections.Categories[0].Label)
}

func TestRefreshConsumesServerDimensions(t *testing.T) {
	source := &scriptedSource{payloads: make(chan *feed.Payload, 1), errs: make(chan error, 1)}
	e := New(DefaultConfig(), store.New(), nil, source, nil)

	source.payloads <- &feed.Payload{
		TotalRows: 40,
		Dimensions: &feed.DimensionSet{
			OpenDates: []feed.DateBucket{
				{Date: "2024-01-10", Emergency: 3, Regular: 7},
			},
			Provinces: []feed.LabelBucket{
				{Label: "Córdoba", Count: 25},
				{Label: "Capital Federal", Count: 15},
			},
			Categories: []feed.LabelBucket{{Label: "Guantes", Count: 40}},
			Buyers:     []feed.LabelBucket{{Label: "PAMI", Count: 40}},
			Statuses:   []feed.StatusBucket{{Status: "Emergencia", Count: 3}, {Status: "Regular", Count: 37}},
		},
	}
	require.NoError(t, e.Refresh(context.Background()))

	snap := e.Snapshot()
	assert.Equal(t, 40, snap.FilteredCount)
	assert.Equal(t, 40, snap.TotalRecords)
	require.Len(t, snap.Projections.TimeSeries, 1)
	assert.Equal(t, 3, snap.Projections.TimeSeries[0].Counts[model.StatusEmergency])
	assert.Equal(t, 25, snap.Projections.Geography["CORDOBA"])
	assert.Equal(t, 15, snap.Projections.Geography["CABA"])
	assert.Equal(t, 3, snap.Projections.StatusShare[model.StatusEmergency])
	assert.Equal(t, 40, snap.Projections.KPIs.Records)
	require.Len(t, snap.Projections.Categories, 1)
	assert.Equal(t, float64(40), snap.Projections.Categories[0].Weight)
	assert.Empty(t, snap.Projections.PivotMean.Rows, "server never sends pivot aggregates")
}

func TestDimensionPayloadSupersedesLoadedRecords(t *testing.T) {
	source := &scriptedSource{payloads: make(chan *feed.Payload, 2), errs: make(chan error, 1)}
	e := newTestEngine(t, source)
	require.Equal(t, 3, e.Snapshot().TotalRecords)

	source.payloads <- &feed.Payload{
		TotalRows: 99,
		Dimensions: &feed.DimensionSet{
			Provinces: []feed.LabelBucket{{Label: "Salta", Count: 99}},
		},
	}
	require.NoError(t, e.Refresh(context.Background()))

	snap := e.Snapshot()
	assert.Equal(t, 99, snap.TotalRecords, "server aggregates replace the stale local rows")
	assert.Equal(t, 99, snap.Projections.Geography["SALTA"])
	assert.Zero(t, snap.Projections.Geography["CORDOBA"])
}

func TestSnapshotDegradesToEmptyProjections(t *testing.T) {
	records := store.New()
	e := New(DefaultConfig(), records, nil, nil, nil)

	snap := e.Snapshot()
	assert.Equal(t, 0, snap.FilteredCount)
	assert.NotNil(t, snap.Projections.TimeSeries)
	assert.NotNil(t, snap.Projections.Geography)
	assert.NotNil(t, snap.Projections.PivotMean.Rows)
	assert.NotNil(t, snap.Projections.PivotMedian.Rows)
}
