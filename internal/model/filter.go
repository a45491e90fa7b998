package model

import "time"

// BuyerClass is the PAMI-vs-other toggle derived from a fuzzy buyer-name
// match rather than a record field.
type BuyerClass string

// BuyerClass values. The empty value means no constraint.
const (
	BuyerClassAny   BuyerClass = ""
	BuyerClassPAMI  BuyerClass = "pami"
	BuyerClassOther BuyerClass = "other"
)

// DecisionFilter selects records by their overlay annotation.
type DecisionFilter string

// DecisionFilter values. The empty value means no constraint.
const (
	DecisionFilterAny      DecisionFilter = ""
	DecisionFilterAccepted DecisionFilter = "accepted"
	DecisionFilterRejected DecisionFilter = "rejected"
	DecisionFilterUnmarked DecisionFilter = "unmarked"
)

// Facet names one independent dimension a record can be filtered or grouped
// by. Cross-filter toggles address filters through facets.
type Facet string

// Facets addressable by the cross-filter dispatcher.
const (
	FacetCategory  Facet = "category"
	FacetGeography Facet = "geography"
	FacetBuyer     Facet = "buyer"
	FacetPlatform  Facet = "platform"
)

// FilterState is the active predicate set over the record store. It is a
// pure serializable value; absent fields constrain nothing, and filtered
// results are always a deterministic function of (records, state, overlay).
type FilterState struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`

	Platform string `json:"platform,omitempty"`
	Buyer    string `json:"buyer,omitempty"`
	Account  string `json:"account,omitempty"`

	BuyerClass BuyerClass     `json:"buyer_class,omitempty"`
	Status     Status         `json:"status,omitempty"`
	Decision   DecisionFilter `json:"decision,omitempty"`

	Search string `json:"search,omitempty"`

	// Cross-filter values, set only through facet activation.
	Category  string `json:"category,omitempty"`
	Geography string `json:"geography,omitempty"`
}

// FacetValue returns the active value for a cross-filterable facet.
func (fs *FilterState) FacetValue(facet Facet) string {
	switch facet {
	case FacetCategory:
		return fs.Category
	case FacetGeography:
		return fs.Geography
	case FacetBuyer:
		return fs.Buyer
	case FacetPlatform:
		return fs.Platform
	default:
		return ""
	}
}

// SetFacetValue sets the active value for a cross-filterable facet. Unknown
// facets are ignored.
func (fs *FilterState) SetFacetValue(facet Facet, value string) {
	switch facet {
	case FacetCategory:
		fs.Category = value
	case FacetGeography:
		fs.Geography = value
	case FacetBuyer:
		fs.Buyer = value
	case FacetPlatform:
		fs.Platform = value
	}
}

// HasDateRange reports whether either endpoint of the date range is set.
func (fs *FilterState) HasDateRange() bool {
	return !fs.From.IsZero() || !fs.To.IsZero()
}
