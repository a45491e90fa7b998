// Package filter evaluates the active predicate set against the record set.
// Evaluation is pure: identical inputs always produce identical output in
// input order.
package filter

import (
	"strings"
	"time"

	"github.com/icastellano/oppanel/internal/model"
	"github.com/icastellano/oppanel/internal/normalize"
)

// pamiCanonicalName is the long institutional name whose containment also
// classifies a buyer as PAMI, compared in folded form.
const pamiCanonicalName = "instituto nacional de servicios sociales para jubilados y pensionados"

// DecisionLookup resolves a record key to its overlay annotation. Records
// absent from the overlay are unmarked.
type DecisionLookup interface {
	Get(key string) (model.Decision, bool)
}

// searchTargets declares which record fields the free-text filter inspects.
var searchTargets = []func(*model.Record) string{
	func(r *model.Record) string { return r.Title },
	func(r *model.Record) string { return r.Buyer },
	func(r *model.Record) string { return r.ProcessID },
}

// IsPAMIBuyer classifies a buyer name via substring containment, case- and
// diacritic-insensitive.
func IsPAMIBuyer(buyer string) bool {
	folded := normalize.Fold(buyer)
	if folded == "" {
		return false
	}
	return strings.Contains(folded, "pami") || strings.Contains(folded, pamiCanonicalName)
}

// Apply returns the records matching the conjunction of all active
// predicates. Absent predicates are vacuously true. The overlay may be nil,
// in which case every record counts as unmarked.
func Apply(records []model.Record, fs model.FilterState, overlay DecisionLookup) []model.Record {
	search := normalize.Fold(fs.Search)

	var from, to time.Time
	if !fs.From.IsZero() {
		from = startOfDay(fs.From)
	}
	if !fs.To.IsZero() {
		to = endOfDay(fs.To)
	}

	out := make([]model.Record, 0, len(records))
	for i := range records {
		if matches(&records[i], &fs, search, from, to, overlay) {
			out = append(out, records[i])
		}
	}
	return out
}

func matches(r *model.Record, fs *model.FilterState, search string, from, to time.Time, overlay DecisionLookup) bool {
	if fs.Platform != "" && r.Platform != fs.Platform {
		return false
	}
	if fs.Buyer != "" && r.Buyer != fs.Buyer {
		return false
	}
	if fs.Account != "" && r.Account != fs.Account {
		return false
	}
	if fs.Category != "" && r.Category != fs.Category {
		return false
	}
	if fs.Geography != "" && normalize.Geography(r.Province) != fs.Geography {
		return false
	}

	switch fs.BuyerClass {
	case model.BuyerClassPAMI:
		if !IsPAMIBuyer(r.Buyer) {
			return false
		}
	case model.BuyerClassOther:
		if IsPAMIBuyer(r.Buyer) {
			return false
		}
	}

	if fs.Status != "" && r.Status != fs.Status {
		return false
	}

	if fs.Decision != model.DecisionFilterAny {
		var decision model.Decision
		var marked bool
		if overlay != nil {
			decision, marked = overlay.Get(r.Key())
		}
		switch fs.Decision {
		case model.DecisionFilterAccepted:
			if !marked || decision != model.DecisionAccepted {
				return false
			}
		case model.DecisionFilterRejected:
			if !marked || decision != model.DecisionRejected {
				return false
			}
		case model.DecisionFilterUnmarked:
			if marked {
				return false
			}
		}
	}

	if !from.IsZero() || !to.IsZero() {
		if r.OpenDate.IsZero() {
			return false
		}
		if !from.IsZero() && r.OpenDate.Before(from) {
			return false
		}
		if !to.IsZero() && r.OpenDate.After(to) {
			return false
		}
	}

	if search != "" && !searchMatches(r, search) {
		return false
	}

	return true
}

func searchMatches(r *model.Record, search string) bool {
	for _, target := range searchTargets {
		if strings.Contains(normalize.Fold(target(r)), search) {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
