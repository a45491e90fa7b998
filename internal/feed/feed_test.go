package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icastellano/oppanel/internal/common"
	"github.com/icastellano/oppanel/internal/model"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{name: "iso date", raw: "2024-03-15", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "iso datetime", raw: "2024-03-15T10:30:00", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "day first slash", raw: "15/03/2024", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "day first dash", raw: "15-03-2024", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", raw: "mañana", want: time.Time{}},
		{name: "empty", raw: "  ", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDate(tt.raw))
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "plain integer", raw: "1234", want: 1234},
		{name: "plain decimal", raw: "1234.56", want: 1234.56},
		{name: "es-AR grouped", raw: "1.234,56", want: 1234.56},
		{name: "es-AR no grouping", raw: "1234,56", want: 1234.56},
		{name: "garbage", raw: "n/a", want: 0},
		{name: "empty", raw: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumber(tt.raw))
		})
	}
}

func TestDecodeRecordAliases(t *testing.T) {
	row := map[string]any{
		"Número":          "OC-123",
		"Fecha Apertura":  "10/01/2024",
		"Repartición":     "Hospital Garrahan",
		"Objeto":          "Guantes de nitrilo",
		"Provincia":       "Córdoba",
		"Tipo Proceso":    "Licitación",
		"N° UAPE":         "UAPE-9",
		"Estado":          "Compra por Emergencia",
		"Cantidad":        "1.500,5",
		"Enlace":          "https://example.com/oc-123",
		"campo_sin_alias": "ignorado",
	}

	r := DecodeRecord(row)
	assert.Equal(t, "OC-123", r.ID)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), r.OpenDate)
	assert.Equal(t, "Hospital Garrahan", r.Buyer)
	assert.Equal(t, "Guantes de nitrilo", r.Title)
	assert.Equal(t, "Córdoba", r.Province)
	assert.Equal(t, "Licitación", r.Category)
	assert.Equal(t, "UAPE-9", r.ProcessID)
	assert.Equal(t, model.StatusEmergency, r.Status)
	assert.Equal(t, 1500.5, r.Quantity)
	assert.Equal(t, "https://example.com/oc-123", r.Link)
}

func TestDecodeRecordAliasPrecedenceIsStable(t *testing.T) {
	// "numero" is declared before "id", so it must win on every decode
	// regardless of map iteration order.
	row := map[string]any{"numero": "A", "id": "B", "apertura": "2024-01-10", "fecha": "2024-02-20"}
	for i := 0; i < 50; i++ {
		r := DecodeRecord(row)
		require.Equal(t, "A", r.ID)
		require.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), r.OpenDate)
	}
}

func TestDecodeRecordDefaultsStatusToRegular(t *testing.T) {
	r := DecodeRecord(map[string]any{"numero": "1"})
	assert.Equal(t, model.StatusRegular, r.Status)
}

func TestDecodeRecordNumericID(t *testing.T) {
	r := DecodeRecord(map[string]any{"numero": float64(4211), "cantidad": float64(7)})
	assert.Equal(t, "4211", r.ID)
	assert.Equal(t, 7.0, r.Quantity)
}

func TestDecodePayloadShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		records int
		dims    bool
		total   int
	}{
		{
			name:    "data key",
			body:    `{"data":[{"numero":"1","estado":"REGULAR"},{"numero":"2","estado":"EMERGENCIA"}]}`,
			records: 2,
			total:   2,
		},
		{
			name:    "rows key",
			body:    `{"rows":[{"numero":"1"}]}`,
			records: 1,
			total:   1,
		},
		{
			name:    "bare array",
			body:    `[{"numero":"1"},{"numero":"2"},{"numero":"3"}]`,
			records: 3,
			total:   3,
		},
		{
			name: "dimensions only",
			body: `{"dimensions":{"fecha_apertura":[{"date":"2024-01-10","emergencia":1,"regular":2,"count":3}],
				"provincia":[{"label":"CORDOBA","count":3}]},"kpis":{"total_rows":3}}`,
			dims:  true,
			total: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodePayload([]byte(tt.body))
			require.NoError(t, err)
			assert.Len(t, p.Records, tt.records)
			assert.Equal(t, tt.dims, p.Dimensions != nil)
			assert.Equal(t, tt.total, p.TotalRows)
			assert.Equal(t, tt.records > 0, p.HasRecords())
		})
	}
}

func TestDecodePayloadDimensionFields(t *testing.T) {
	body := `{"dimensions":{
		"fecha_apertura":[{"date":"2024-01-10","emergencia":1,"regular":2,"count":3}],
		"reparticion_estado":[{"label":"PAMI","emergencia":5,"regular":1}],
		"estado":[{"estado":"EMERGENCIA","count":6}]
	}}`

	p, err := DecodePayload([]byte(body))
	require.NoError(t, err)
	require.NotNil(t, p.Dimensions)
	require.Len(t, p.Dimensions.OpenDates, 1)
	assert.Equal(t, "2024-01-10", p.Dimensions.OpenDates[0].Date)
	assert.Equal(t, 3, p.Dimensions.OpenDates[0].Count)
	require.Len(t, p.Dimensions.BuyerStatus, 1)
	assert.Equal(t, 5, p.Dimensions.BuyerStatus[0].Emergency)
	require.Len(t, p.Dimensions.Statuses, 1)
	assert.Equal(t, "EMERGENCIA", p.Dimensions.Statuses[0].Status)
}

func TestDecodePayloadRejectsUnknownShape(t *testing.T) {
	_, err := DecodePayload([]byte(`{"hola":"mundo"}`))
	assert.ErrorIs(t, err, common.ErrFeedUnavailable)
}

func TestQueryParams(t *testing.T) {
	fs := model.FilterState{
		From:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Platform: "ComprAR",
		Buyer:    "PAMI",
		Search:   "guantes",
	}

	params := QueryParams(fs, nil)
	assert.Equal(t, "2024-01-01", params.Get("date_from"))
	assert.Equal(t, "2024-01-31", params.Get("date_to"))
	assert.Equal(t, "ComprAR", params.Get("platform"))
	assert.Equal(t, "PAMI", params.Get("buyer"))
	assert.Equal(t, "guantes", params.Get("q"))
	assert.Empty(t, params.Get("category"))
}

func TestQueryParamsCarryDecisionState(t *testing.T) {
	fs := model.FilterState{
		Decision:   model.DecisionFilterAccepted,
		BuyerClass: model.BuyerClassPAMI,
	}
	marks := map[string]model.Decision{
		"OC-2|2024-01-20": model.DecisionAccepted,
		"OC-1|2024-01-10": model.DecisionAccepted,
		"OC-3|2024-02-05": model.DecisionRejected,
	}

	params := QueryParams(fs, marks)
	assert.Equal(t, "accepted", params.Get("decision"))
	assert.Equal(t, "pami", params.Get("class"))
	assert.Equal(t, "OC-1|2024-01-10,OC-2|2024-01-20", params.Get("accepted"))
	assert.Equal(t, "OC-3|2024-02-05", params.Get("rejected"))
}

func TestClientFetch(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"numero":"1","fecha":"2024-01-10"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	fs := model.FilterState{Buyer: "PAMI"}
	p, err := client.Fetch(context.Background(), fs, nil)
	require.NoError(t, err)
	require.Len(t, p.Records, 1)
	assert.Equal(t, "1", p.Records[0].ID)
	assert.Contains(t, gotQuery, "buyer=PAMI")
}

func TestClientFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), model.FilterState{}, nil)
	assert.ErrorIs(t, err, common.ErrFeedUnavailable)
}

func TestNewClientRejectsEmptyURL(t *testing.T) {
	_, err := NewClient("  ")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
