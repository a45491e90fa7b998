// Package rangesync keeps a two-handle range control consistent with a
// discrete, irregular date domain. The control speaks in integer indices;
// date fields speak in timestamps. Both representations snap to dates that
// actually occur in the loaded data.
package rangesync

import (
	"log/slog"
	"sync"
	"time"

	"github.com/icastellano/oppanel/internal/store"
)

// DefaultDebounce is the quiet window applied to slider drags before the
// committed range is published. Direct date edits bypass it.
const DefaultDebounce = 250 * time.Millisecond

// DefaultRangeDays is the width of the initial range in business days,
// counted back from the domain's latest date (or today, whichever is
// earlier).
const DefaultRangeDays = 30

// CommitFunc receives the selected range whenever it settles.
type CommitFunc func(from, to time.Time)

// Synchronizer maps slider indices onto the store's date domain and
// publishes settled ranges through a commit callback.
type Synchronizer struct {
	mu        sync.Mutex
	domain    store.Domain
	fromIdx   int
	toIdx     int
	defaulted bool
	debounce  time.Duration
	rangeDays int
	timer     *time.Timer
	commit    CommitFunc
	now       func() time.Time
}

// New creates a synchronizer with an empty domain. A non-positive debounce
// uses DefaultDebounce; non-positive rangeDays uses DefaultRangeDays.
func New(debounce time.Duration, rangeDays int, commit CommitFunc) *Synchronizer {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if rangeDays <= 0 {
		rangeDays = DefaultRangeDays
	}
	return &Synchronizer{
		fromIdx:   -1,
		toIdx:     -1,
		debounce:  debounce,
		rangeDays: rangeDays,
		commit:    commit,
		now:       time.Now,
	}
}

// SetDomain replaces the date domain. Endpoints already selected are
// re-snapped to their nearest surviving dates. On the first non-empty
// domain with no endpoint selected, the default range is applied once and
// committed immediately.
func (s *Synchronizer) SetDomain(domain store.Domain) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevFrom, prevTo, hadRange := s.rangeLocked()
	s.domain = domain

	if domain.Len() == 0 {
		s.fromIdx, s.toIdx = -1, -1
		return
	}

	if hadRange {
		s.fromIdx = domain.Nearest(prevFrom)
		s.toIdx = domain.Nearest(prevTo)
		s.orderLocked()
		return
	}

	if s.defaulted {
		return
	}
	s.defaulted = true

	latest := domain.Max()
	if today := dayTruncate(s.now()); today.Before(latest) {
		latest = today
	}
	s.toIdx = domain.Nearest(latest)
	s.fromIdx = domain.Nearest(businessDaysBack(domain.At(s.toIdx), s.rangeDays))
	s.orderLocked()
	slog.Debug("default range applied",
		"from", domain.At(s.fromIdx).Format("2006-01-02"),
		"to", domain.At(s.toIdx).Format("2006-01-02"))
	s.commitLocked()
}

// SetIndices moves both slider handles. Indices are clamped to the domain
// and reordered if reversed. The commit is debounced so continuous drags
// settle once.
func (s *Synchronizer) SetIndices(fromIdx, toIdx int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.domain.Len() == 0 {
		return
	}
	s.fromIdx = clamp(fromIdx, 0, s.domain.Len()-1)
	s.toIdx = clamp(toIdx, 0, s.domain.Len()-1)
	s.orderLocked()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.timer = nil
		s.commitLocked()
	})
}

// SetDates selects a range from explicit date fields. Each endpoint snaps
// to the nearest domain date and the commit fires immediately, superseding
// any pending drag.
func (s *Synchronizer) SetDates(from, to time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.domain.Len() == 0 {
		return
	}
	s.fromIdx = s.domain.Nearest(from)
	s.toIdx = s.domain.Nearest(to)
	s.orderLocked()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.commitLocked()
}

// Debounce returns the quiet window applied to slider drags.
func (s *Synchronizer) Debounce() time.Duration {
	return s.debounce
}

// Flush fires any pending debounced commit immediately.
func (s *Synchronizer) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	s.timer = nil
	s.commitLocked()
}

// Indices returns the current handle positions, or (-1, -1) when no range
// is selected.
func (s *Synchronizer) Indices() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fromIdx, s.toIdx
}

// Range returns the selected dates; ok is false when no range is selected.
func (s *Synchronizer) Range() (from, to time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rangeLocked()
}

func (s *Synchronizer) rangeLocked() (from, to time.Time, ok bool) {
	if s.fromIdx < 0 || s.toIdx < 0 || s.domain.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s.domain.At(s.fromIdx), s.domain.At(s.toIdx), true
}

func (s *Synchronizer) orderLocked() {
	if s.fromIdx > s.toIdx {
		s.fromIdx, s.toIdx = s.toIdx, s.fromIdx
	}
}

func (s *Synchronizer) commitLocked() {
	from, to, ok := s.rangeLocked()
	if !ok || s.commit == nil {
		return
	}
	s.commit(from, to)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func dayTruncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// businessDaysBack walks n weekdays backwards from t, skipping Saturdays
// and Sundays.
func businessDaysBack(t time.Time, n int) time.Time {
	out := dayTruncate(t)
	for n > 0 {
		out = out.AddDate(0, 0, -1)
		if wd := out.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n--
		}
	}
	return out
}
