// Package geo loads the province boundary reference used to join the
// geographic rollup against real geometry. The reference document is
// fetched once and cached for the session; features are indexed by the
// same normalized name key the rollup uses.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/icastellano/oppanel/internal/common"
	"github.com/icastellano/oppanel/internal/model"
	"github.com/icastellano/oppanel/internal/normalize"
)

// Feature is one named boundary from the reference document.
type Feature struct {
	Name     string
	Geometry json.RawMessage
}

// Feature name property spellings seen across reference documents.
var namePropertyKeys = []string{"provincia", "nombre", "NOMBRE", "name"}

type rawFeature struct {
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type featureCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

// Reference is a session-cached set of boundary features indexed by
// normalized geography key.
type Reference struct {
	features map[string]Feature
}

// Lookup returns the feature for a raw or normalized geography name.
func (r *Reference) Lookup(name string) (Feature, bool) {
	f, ok := r.features[normalize.Geography(name)]
	return f, ok
}

// Len returns the number of indexed features.
func (r *Reference) Len() int {
	return len(r.features)
}

// RegionCount pairs one boundary feature with its rollup count. Features
// absent from the rollup carry 0 so the whole map always renders.
type RegionCount struct {
	Feature Feature
	Count   int
}

// Join matches a geographic rollup against the reference. Every feature
// appears exactly once; the second result is the count bucketed under
// names with no matching feature, including the unknown bucket.
func (r *Reference) Join(rollup model.GeoRollup) ([]RegionCount, int) {
	out := make([]RegionCount, 0, len(r.features))
	matched := make(map[string]bool, len(r.features))
	for key, f := range r.features {
		out = append(out, RegionCount{Feature: f, Count: rollup[key]})
		matched[key] = true
	}

	unmatched := 0
	for key, count := range rollup {
		if !matched[key] {
			unmatched += count
		}
	}
	return out, unmatched
}

// Client fetches the boundary reference over HTTP and caches it.
type Client struct {
	url        string
	httpClient *http.Client

	mu     sync.Mutex
	cached *Reference
}

// NewClient creates a reference client for the given document URL.
func NewClient(url string) (*Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: geography URL cannot be empty", common.ErrInvalidConfig)
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Reference returns the cached boundary reference, fetching it on first
// use.
func (c *Client) Reference(ctx context.Context) (*Reference, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil {
		return c.cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geography request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrGeoUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: geography reference returned %d",
			common.ErrGeoUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading geography reference: %v", common.ErrGeoUnavailable, err)
	}

	ref, err := ParseReference(body)
	if err != nil {
		return nil, err
	}
	c.cached = ref
	return ref, nil
}

// ParseReference indexes a FeatureCollection document by normalized
// geography key. Features with no recognizable name property are skipped.
func ParseReference(body []byte) (*Reference, error) {
	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("%w: malformed geography reference: %v", common.ErrGeoUnavailable, err)
	}
	if fc.Features == nil {
		return nil, fmt.Errorf("%w: geography reference has no features", common.ErrGeoUnavailable)
	}

	features := make(map[string]Feature, len(fc.Features))
	skipped := 0
	for _, raw := range fc.Features {
		name := featureName(raw.Properties)
		if name == "" {
			skipped++
			continue
		}
		features[normalize.Geography(name)] = Feature{Name: name, Geometry: raw.Geometry}
	}
	if skipped > 0 {
		slog.Warn("Skipped unnamed geography features", "count", skipped)
	}
	return &Reference{features: features}, nil
}

func featureName(props map[string]any) string {
	for _, key := range namePropertyKeys {
		if v, ok := props[key].(string); ok {
			if name := strings.TrimSpace(v); name != "" {
				return name
			}
		}
	}
	return ""
}
