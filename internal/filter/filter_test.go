package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icastellano/oppanel/internal/model"
)

type mapOverlay map[string]model.Decision

func (m mapOverlay) Get(key string) (model.Decision, bool) {
	d, ok := m[key]
	return d, ok
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testRecords() []model.Record {
	return []model.Record{
		{ID: "1", OpenDate: day(2024, 1, 10), Buyer: "PAMI - UGL Córdoba", Title: "Provisión de insumos médicos", Platform: "ComprAR", Category: "Licitación Pública", Province: "Córdoba", Status: model.StatusEmergency, Quantity: 100},
		{ID: "2", OpenDate: day(2024, 1, 20), Buyer: "Ministerio de Salud", Title: "Obra de ampliación", Platform: "ComprAR", Category: "Obra Pública", Province: "Buenos Aires", Status: model.StatusRegular, Quantity: 50},
		{ID: "3", OpenDate: day(2024, 2, 5), Buyer: "Instituto Nacional de Servicios Sociales para Jubilados y Pensionados", Title: "Contratación de limpieza", Platform: "SIPRO", Category: "Contratación Directa", Province: "CABA", Status: model.StatusRegular, Quantity: 10},
		{ID: "4", Buyer: "Hospital Garrahan", Title: "Equipamiento", Platform: "SIPRO", Category: "Licitación Pública", Province: "caba", Status: model.StatusRegular, Quantity: 7},
	}
}

func TestApplyNoFilters(t *testing.T) {
	records := testRecords()
	got := Apply(records, model.FilterState{}, nil)
	require.Len(t, got, len(records))
	// Stable: input order preserved.
	for i := range got {
		assert.Equal(t, records[i].ID, got[i].ID)
	}
}

func TestApplyDateRange(t *testing.T) {
	records := testRecords()

	got := Apply(records, model.FilterState{From: day(2024, 1, 15), To: day(2024, 2, 5)}, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	// Bounds are inclusive day bounds.
	got = Apply(records, model.FilterState{From: day(2024, 1, 10), To: day(2024, 1, 10)}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	// Undated records never match an active date range.
	got = Apply(records, model.FilterState{From: day(2020, 1, 1)}, nil)
	for _, r := range got {
		assert.False(t, r.OpenDate.IsZero())
	}
}

func TestApplyBuyerClass(t *testing.T) {
	records := testRecords()

	pami := Apply(records, model.FilterState{BuyerClass: model.BuyerClassPAMI}, nil)
	require.Len(t, pami, 2, "both the acronym and the long institutional name must classify as PAMI")

	other := Apply(records, model.FilterState{BuyerClass: model.BuyerClassOther}, nil)
	require.Len(t, other, 2)
	for _, r := range other {
		assert.False(t, IsPAMIBuyer(r.Buyer))
	}
}

func TestApplySearchFoldsDiacritics(t *testing.T) {
	records := testRecords()

	got := Apply(records, model.FilterState{Search: "INSUMOS MEDICOS"}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	// Search also covers the buyer field.
	got = Apply(records, model.FilterState{Search: "garrahan"}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "4", got[0].ID)
}

func TestApplyGeographyCrossFilter(t *testing.T) {
	records := testRecords()

	got := Apply(records, model.FilterState{Geography: "CABA"}, nil)
	require.Len(t, got, 2, "raw province spellings must be normalized before comparison")
}

func TestApplyDecisionFilter(t *testing.T) {
	records := testRecords()
	overlay := mapOverlay{
		(&records[0]).Key(): model.DecisionAccepted,
		(&records[1]).Key(): model.DecisionRejected,
	}

	accepted := Apply(records, model.FilterState{Decision: model.DecisionFilterAccepted}, overlay)
	require.Len(t, accepted, 1)
	assert.Equal(t, "1", accepted[0].ID)

	// Other facets still compose with the decision predicate.
	none := Apply(records, model.FilterState{Decision: model.DecisionFilterAccepted, Platform: "SIPRO"}, overlay)
	assert.Empty(t, none)

	unmarked := Apply(records, model.FilterState{Decision: model.DecisionFilterUnmarked}, overlay)
	require.Len(t, unmarked, 2)
	assert.Equal(t, "3", unmarked[0].ID)
	assert.Equal(t, "4", unmarked[1].ID)

	// A nil overlay means everything is unmarked.
	all := Apply(records, model.FilterState{Decision: model.DecisionFilterUnmarked}, nil)
	assert.Len(t, all, len(records))
}

func TestApplyConjunction(t *testing.T) {
	records := testRecords()
	fs := model.FilterState{
		Platform: "ComprAR",
		Status:   model.StatusEmergency,
		From:     day(2024, 1, 1),
		To:       day(2024, 12, 31),
	}
	got := Apply(records, fs, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestIsPAMIBuyer(t *testing.T) {
	tests := []struct {
		name  string
		buyer string
		want  bool
	}{
		{name: "acronym embedded", buyer: "PAMI UGL VI", want: true},
		{name: "lowercase", buyer: "delegación pami salta", want: true},
		{name: "long name with accents", buyer: "Instituto Nacional de Servicios Sociales para Jubilados y Pensionados", want: true},
		{name: "unrelated", buyer: "Ministerio de Salud", want: false},
		{name: "empty", buyer: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPAMIBuyer(tt.buyer))
		})
	}
}
