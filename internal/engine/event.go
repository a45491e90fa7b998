package engine

import (
	"time"

	"github.com/icastellano/oppanel/internal/model"
)

// Event is one filter mutation entering the engine. Every control path,
// whether a rendered-projection click or an explicit form field, goes
// through Dispatch with one of these.
type Event interface {
	isEvent()
}

// FacetActivated is a click on a rendered projection. It carries toggle
// semantics: activating the currently selected value clears it.
type FacetActivated struct {
	Facet model.Facet
	Value string
}

// SelectionSet is an explicit facet choice from a form control. Unlike
// FacetActivated it always sets; an empty value clears.
type SelectionSet struct {
	Facet model.Facet
	Value string
}

// AccountSet selects the account filter; an empty value clears it.
type AccountSet struct {
	Value string
}

// RangeSet selects the active date range. Zero endpoints clear it.
type RangeSet struct {
	From time.Time
	To   time.Time
}

// SearchSet replaces the free-text filter.
type SearchSet struct {
	Query string
}

// StatusSet selects the status chip; the empty status clears it.
type StatusSet struct {
	Status model.Status
}

// BuyerClassSet selects the PAMI-vs-other chip.
type BuyerClassSet struct {
	Class model.BuyerClass
}

// DecisionFilterSet selects the decision annotation filter.
type DecisionFilterSet struct {
	Filter model.DecisionFilter
}

// FiltersCleared resets every predicate, including the date range.
type FiltersCleared struct{}

func (FacetActivated) isEvent()    {}
func (SelectionSet) isEvent()      {}
func (AccountSet) isEvent()        {}
func (RangeSet) isEvent()          {}
func (SearchSet) isEvent()         {}
func (StatusSet) isEvent()         {}
func (BuyerClassSet) isEvent()     {}
func (DecisionFilterSet) isEvent() {}
func (FiltersCleared) isEvent()    {}
