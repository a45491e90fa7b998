// Package store holds the current flat record set and its derived date
// domain.
package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/icastellano/oppanel/internal/model"
)

// RecordStore holds the current record set. The store is replaced wholesale
// on a new dataset load, never mutated record-by-record.
type RecordStore struct {
	mu      sync.RWMutex
	records []model.Record
	domain  Domain
	dropped int
}

// New creates an empty record store.
func New() *RecordStore {
	return &RecordStore{}
}

// Load atomically replaces the store's contents and recomputes the date
// domain. Records without a usable opening date stay in the raw set so
// non-date projections can still count them, but they contribute nothing to
// the domain; their count is retained for diagnostics.
func (s *RecordStore) Load(records []model.Record) {
	dates := make([]time.Time, 0, len(records))
	dropped := 0
	for i := range records {
		if records[i].OpenDate.IsZero() {
			dropped++
			continue
		}
		dates = append(dates, records[i].OpenDate)
	}

	domain := NewDomain(dates)

	s.mu.Lock()
	s.records = records
	s.domain = domain
	s.dropped = dropped
	s.mu.Unlock()

	if dropped > 0 {
		slog.Warn("Loaded dataset with undated records",
			"total", len(records),
			"undated", dropped)
	} else {
		slog.Debug("Loaded dataset", "total", len(records), "days", domain.Len())
	}
}

// All returns the current record sequence. Callers must treat the returned
// slice as read-only.
func (s *RecordStore) All() []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

// Domain returns the derived date domain of the current record set.
func (s *RecordStore) Domain() Domain {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.domain
}

// Dropped returns how many records of the last load were excluded from the
// date domain for lacking a parseable opening date.
func (s *RecordStore) Dropped() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

// Len returns the number of records currently loaded.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
