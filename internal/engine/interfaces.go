package engine

import (
	"context"

	"github.com/icastellano/oppanel/internal/feed"
	"github.com/icastellano/oppanel/internal/geo"
	"github.com/icastellano/oppanel/internal/model"
)

// RecordSource defines the contract for fetching the raw record set. The
// decision-overlay snapshot travels with the filter state so the upstream
// can honor decision filters server-side.
type RecordSource interface {
	Fetch(ctx context.Context, fs model.FilterState, marks map[string]model.Decision) (*feed.Payload, error)
}

// GeoSource defines the contract for loading the boundary reference joined
// against the geographic rollup.
type GeoSource interface {
	Reference(ctx context.Context) (*geo.Reference, error)
}
