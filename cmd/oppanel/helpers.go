package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/icastellano/oppanel/internal/common"
	"github.com/icastellano/oppanel/internal/config"
	"github.com/icastellano/oppanel/internal/decision"
	"github.com/icastellano/oppanel/internal/engine"
	"github.com/icastellano/oppanel/internal/feed"
	"github.com/icastellano/oppanel/internal/geo"
	"github.com/icastellano/oppanel/internal/model"
	"github.com/icastellano/oppanel/internal/store"
)

// fetchPayload loads the record payload from the configured source: a
// local JSON file when feed.file is set, the feed endpoint otherwise.
// Network fetches are retried with backoff.
func fetchPayload(ctx context.Context, fs model.FilterState, marks map[string]model.Decision) (*feed.Payload, error) {
	if file := viper.GetString("feed.file"); file != "" {
		body, err := os.ReadFile(config.ExpandPath(file))
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}
		return feed.DecodePayload(body)
	}

	url := viper.GetString("feed.url")
	if url == "" {
		return nil, fmt.Errorf("%w: set feed.url or --file", common.ErrMissingConfig)
	}
	client, err := feed.NewClient(url)
	if err != nil {
		return nil, err
	}

	var payload *feed.Payload
	err = common.WithRetry(ctx, func() error {
		var fetchErr error
		payload, fetchErr = client.Fetch(ctx, fs, marks)
		if fetchErr != nil {
			return &common.RetryableError{Err: fetchErr, Retryable: common.IsRetryable(fetchErr)}
		}
		return nil
	}, common.RetryOptions{})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// feedSource adapts fetchPayload to the engine's RecordSource contract.
type feedSource struct{}

func (feedSource) Fetch(ctx context.Context, fs model.FilterState, marks map[string]model.Decision) (*feed.Payload, error) {
	return fetchPayload(ctx, fs, marks)
}

// overlayScope derives the decision scope from the configured source, so
// annotations made over one dataset never bleed into another.
func overlayScope() string {
	if file := viper.GetString("feed.file"); file != "" {
		return "file:" + config.ExpandPath(file)
	}
	if url := viper.GetString("feed.url"); url != "" {
		return "feed:" + strings.TrimRight(url, "/")
	}
	return "local"
}

// initOverlay opens the decision store and loads this view's annotations.
// The caller owns closing the returned store.
func initOverlay(ctx context.Context) (*decision.Overlay, *decision.Store, error) {
	dbPath := viper.GetString("decisions.path")
	if dbPath == "" {
		dbPath = config.DefaultOverlayPath()
	}

	ds, err := decision.NewStore(config.ExpandPath(dbPath))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open decision store: %w", err)
	}
	if err := ds.Migrate(ctx); err != nil {
		_ = ds.Close()
		return nil, nil, err
	}
	return decision.NewOverlay(ctx, ds, overlayScope()), ds, nil
}

// initEngine builds a fully wired engine: record store, decision overlay,
// feed source and geography reference.
func initEngine(ctx context.Context, cfg engine.Config) (*engine.Engine, *decision.Store, error) {
	overlay, ds, err := initOverlay(ctx)
	if err != nil {
		return nil, nil, err
	}

	var geoSource engine.GeoSource
	if geoURL := viper.GetString("geo.url"); geoURL != "" {
		client, geoErr := geo.NewClient(geoURL)
		if geoErr != nil {
			_ = ds.Close()
			return nil, nil, geoErr
		}
		geoSource = client
	}

	e := engine.New(cfg, store.New(), overlay, feedSource{}, geoSource)
	return e, ds, nil
}

// parseDay parses a YYYY-MM-DD flag value; empty means unset.
func parseDay(value, flag string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s (want 2006-01-02): %w", flag, err)
	}
	return t, nil
}
