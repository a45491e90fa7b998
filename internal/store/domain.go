package store

import (
	"sort"
	"time"
)

// Domain is the sorted set of distinct opening days present in the loaded
// record set. It is discrete on purpose: real calendars have gaps, and range
// controls must only ever address days that actually occur in data.
type Domain []time.Time

// NewDomain builds a Domain from raw opening dates, truncating to the day,
// de-duplicating and sorting ascending. Zero times are skipped.
func NewDomain(dates []time.Time) Domain {
	seen := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		seen[day] = struct{}{}
	}

	domain := make(Domain, 0, len(seen))
	for day := range seen {
		domain = append(domain, day)
	}
	sort.Slice(domain, func(i, j int) bool { return domain[i].Before(domain[j]) })
	return domain
}

// Len returns the number of distinct days.
func (d Domain) Len() int { return len(d) }

// Min returns the earliest day, or the zero time for an empty domain.
func (d Domain) Min() time.Time {
	if len(d) == 0 {
		return time.Time{}
	}
	return d[0]
}

// Max returns the latest day, or the zero time for an empty domain.
func (d Domain) Max() time.Time {
	if len(d) == 0 {
		return time.Time{}
	}
	return d[len(d)-1]
}

// At returns the day at index i, clamped into range. An empty domain
// returns the zero time.
func (d Domain) At(i int) time.Time {
	if len(d) == 0 {
		return time.Time{}
	}
	if i < 0 {
		i = 0
	}
	if i >= len(d) {
		i = len(d) - 1
	}
	return d[i]
}

// Nearest returns the index of the domain entry closest to t by absolute
// time difference, so externally-set dates always snap to a representable
// day. Returns -1 for an empty domain.
func (d Domain) Nearest(t time.Time) int {
	if len(d) == 0 {
		return -1
	}

	i := sort.Search(len(d), func(i int) bool { return !d[i].Before(t) })
	if i == 0 {
		return 0
	}
	if i == len(d) {
		return len(d) - 1
	}

	before := t.Sub(d[i-1])
	after := d[i].Sub(t)
	if before <= after {
		return i - 1
	}
	return i
}
