package store

import (
	"testing"
	"time"

	"github.com/icastellano/oppanel/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoadDerivesDomain(t *testing.T) {
	s := New()
	s.Load([]model.Record{
		{ID: "a", OpenDate: time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)},
		{ID: "b", OpenDate: time.Date(2024, 1, 10, 16, 0, 0, 0, time.UTC)},
		{ID: "c", OpenDate: day(2024, 1, 8)},
		{ID: "d"}, // undated, retained but outside the domain
	})

	if got := s.Len(); got != 4 {
		t.Fatalf("Len() = %d, want 4 (undated records are retained)", got)
	}
	if got := s.Dropped(); got != 1 {
		t.Fatalf("Dropped() = %d, want 1", got)
	}

	dom := s.Domain()
	if dom.Len() != 2 {
		t.Fatalf("domain length = %d, want 2 (same-day times collapse)", dom.Len())
	}
	if !dom.Min().Equal(day(2024, 1, 8)) || !dom.Max().Equal(day(2024, 1, 10)) {
		t.Errorf("domain bounds = [%v, %v]", dom.Min(), dom.Max())
	}
}

func TestLoadReplacesWholesale(t *testing.T) {
	s := New()
	s.Load([]model.Record{{ID: "a", OpenDate: day(2024, 1, 1)}})
	s.Load([]model.Record{{ID: "b", OpenDate: day(2025, 6, 1)}})

	if got := s.Len(); got != 1 {
		t.Fatalf("Len() = %d after reload, want 1", got)
	}
	if !s.Domain().Min().Equal(day(2025, 6, 1)) {
		t.Errorf("domain not rebuilt on reload: %v", s.Domain())
	}
}

func TestDomainNearest(t *testing.T) {
	dom := NewDomain([]time.Time{day(2024, 1, 5), day(2024, 1, 10), day(2024, 1, 20)})

	tests := []struct {
		name string
		t    time.Time
		want int
	}{
		{name: "exact hit", t: day(2024, 1, 10), want: 1},
		{name: "before first", t: day(2023, 12, 1), want: 0},
		{name: "after last", t: day(2024, 2, 1), want: 2},
		{name: "snaps to closer earlier day", t: day(2024, 1, 12), want: 1},
		{name: "snaps to closer later day", t: day(2024, 1, 18), want: 2},
		{name: "equidistant prefers earlier", t: day(2024, 1, 15), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dom.Nearest(tt.t); got != tt.want {
				t.Errorf("Nearest(%v) = %d, want %d", tt.t, got, tt.want)
			}
		})
	}

	if got := Domain(nil).Nearest(day(2024, 1, 1)); got != -1 {
		t.Errorf("empty domain Nearest = %d, want -1", got)
	}
}

func TestDomainIndexRoundTrip(t *testing.T) {
	dom := NewDomain([]time.Time{
		day(2024, 1, 2), day(2024, 1, 3), day(2024, 1, 8),
		day(2024, 2, 1), day(2024, 3, 15),
	})

	for i := 0; i < dom.Len(); i++ {
		if got := dom.Nearest(dom.At(i)); got != i {
			t.Errorf("round trip failed at index %d: got %d", i, got)
		}
	}
}

func TestDomainAtClamps(t *testing.T) {
	dom := NewDomain([]time.Time{day(2024, 1, 2), day(2024, 1, 3)})
	if !dom.At(-5).Equal(day(2024, 1, 2)) {
		t.Error("At(-5) should clamp to the first day")
	}
	if !dom.At(99).Equal(day(2024, 1, 3)) {
		t.Error("At(99) should clamp to the last day")
	}
	if !Domain(nil).At(0).IsZero() {
		t.Error("empty domain At should return the zero time")
	}
}
