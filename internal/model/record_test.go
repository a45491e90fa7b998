package model

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Status
	}{
		{name: "emergency uppercase", raw: "EMERGENCIA", want: StatusEmergency},
		{name: "emergency english", raw: "Emergency", want: StatusEmergency},
		{name: "accented", raw: "emergéncia", want: StatusEmergency},
		{name: "regular", raw: "REGULAR", want: StatusRegular},
		{name: "empty defaults to regular", raw: "", want: StatusRegular},
		{name: "unrelated value", raw: "vigente", want: StatusRegular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseStatus(tt.raw); got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRecordKey(t *testing.T) {
	r := Record{ID: "EXP-2024-001", OpenDate: time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)}
	if got, want := r.Key(), "EXP-2024-001|2024-03-05"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}

	undated := Record{ID: "EXP-2024-002"}
	if got, want := undated.Key(), "EXP-2024-002|"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestFieldForKey(t *testing.T) {
	tests := []struct {
		key  string
		want RecordField
	}{
		{key: "Número", want: FieldID},
		{key: "fecha_apertura", want: FieldOpenDate},
		{key: "Repartición", want: FieldBuyer},
		{key: "N° UAPE", want: FieldProcess},
		{key: "Enlace de pliego", want: FieldLink},
		{key: "CANTIDAD", want: FieldQuantity},
		{key: "unrelated_column", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := FieldForKey(tt.key); got != tt.want {
				t.Errorf("FieldForKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestFacetValueRoundTrip(t *testing.T) {
	var fs FilterState
	for _, facet := range []Facet{FacetCategory, FacetGeography, FacetBuyer, FacetPlatform} {
		fs.SetFacetValue(facet, "x")
		if got := fs.FacetValue(facet); got != "x" {
			t.Errorf("facet %q: got %q after set", facet, got)
		}
		fs.SetFacetValue(facet, "")
	}
	if fs != (FilterState{}) {
		t.Errorf("clearing all facets should restore the zero state, got %+v", fs)
	}
}
