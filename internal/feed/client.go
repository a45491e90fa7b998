// Package feed fetches the raw opportunity record set from an upstream
// source. The upstream may return either a plain record array or a set of
// server-computed dimension tables; both shapes are supported and selected
// by inspecting the payload.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/icastellano/oppanel/internal/common"
	"github.com/icastellano/oppanel/internal/model"
)

// Client fetches record payloads over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a feed client for the given endpoint URL.
func NewClient(baseURL string) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("%w: feed URL cannot be empty", common.ErrInvalidConfig)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid feed URL: %v", common.ErrInvalidConfig, err)
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// DateBucket is one time-series entry of a server dimension table.
type DateBucket struct {
	Date      string `json:"date"`
	Emergency int    `json:"emergencia"`
	Regular   int    `json:"regular"`
	Count     int    `json:"count"`
}

// LabelBucket is one (label, count) entry of a server dimension table.
type LabelBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// BuyerBucket is one buyer entry with per-status counts.
type BuyerBucket struct {
	Label     string `json:"label"`
	Emergency int    `json:"emergencia"`
	Regular   int    `json:"regular"`
}

// StatusBucket is one entry of the status share dimension.
type StatusBucket struct {
	Status string `json:"estado"`
	Count  int    `json:"count"`
}

// DimensionSet holds server-computed aggregates, keyed the way the
// upstream emits them.
type DimensionSet struct {
	OpenDates   []DateBucket   `json:"fecha_apertura"`
	Provinces   []LabelBucket  `json:"provincia"`
	Categories  []LabelBucket  `json:"tipo_proceso"`
	BuyerStatus []BuyerBucket  `json:"reparticion_estado"`
	Statuses    []StatusBucket `json:"estado"`
	Platforms   []LabelBucket  `json:"plataforma"`
	Accounts    []LabelBucket  `json:"cuenta"`
	Buyers      []LabelBucket  `json:"comprador"`
}

type feedKPIs struct {
	TotalRows int `json:"total_rows"`
}

// Payload is a decoded feed response: raw records, server dimensions, or
// both. Exactly the fields the upstream supplied are populated.
type Payload struct {
	Records    []model.Record
	Dimensions *DimensionSet
	TotalRows  int
	Skipped    int
}

// HasRecords reports whether the payload carries a raw record array.
func (p *Payload) HasRecords() bool {
	return p.Records != nil
}

// The upstream has shipped the raw array under several keys over time.
var recordArrayKeys = []string{"data", "rows", "results", "items"}

type rawPayload struct {
	Data       json.RawMessage `json:"data"`
	Rows       json.RawMessage `json:"rows"`
	Results    json.RawMessage `json:"results"`
	Items      json.RawMessage `json:"items"`
	Dimensions *DimensionSet   `json:"dimensions"`
	KPIs       *feedKPIs       `json:"kpis"`
}

// Fetch requests the record set for the given filter state and overlay
// snapshot. Both are serialized as query parameters; the response shape is
// detected from the payload keys.
func (c *Client) Fetch(ctx context.Context, fs model.FilterState, marks map[string]model.Decision) (*Payload, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid feed URL: %v", common.ErrInvalidConfig, err)
	}
	u.RawQuery = QueryParams(fs, marks).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrFeedUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: feed returned %d: %s",
			common.ErrFeedUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading feed response: %v", common.ErrFeedUnavailable, err)
	}

	return DecodePayload(body)
}

// DecodePayload detects the payload shape and decodes it: a record array
// under one of the known keys (or a bare top-level array), or a dimensions
// object with optional KPIs. A payload with neither is an error.
func DecodePayload(body []byte) (*Payload, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var rows []any
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("%w: malformed record array: %v", common.ErrFeedUnavailable, err)
		}
		records, skipped := DecodeRecords(rows)
		return &Payload{Records: records, TotalRows: len(records), Skipped: skipped}, nil
	}

	var raw rawPayload
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed feed payload: %v", common.ErrFeedUnavailable, err)
	}

	for i, candidate := range [][]byte{raw.Data, raw.Rows, raw.Results, raw.Items} {
		if len(candidate) == 0 {
			continue
		}
		var rows []any
		if err := json.Unmarshal(candidate, &rows); err != nil {
			slog.Warn("Skipping non-array record key", "key", recordArrayKeys[i], "error", err)
			continue
		}
		records, skipped := DecodeRecords(rows)
		p := &Payload{Records: records, TotalRows: len(records), Skipped: skipped, Dimensions: raw.Dimensions}
		if raw.KPIs != nil && raw.KPIs.TotalRows > 0 {
			p.TotalRows = raw.KPIs.TotalRows
		}
		return p, nil
	}

	if raw.Dimensions != nil {
		p := &Payload{Dimensions: raw.Dimensions}
		if raw.KPIs != nil {
			p.TotalRows = raw.KPIs.TotalRows
		}
		return p, nil
	}

	return nil, fmt.Errorf("%w: payload has neither records nor dimensions", common.ErrFeedUnavailable)
}

// QueryParams serializes a filter state and the decision-overlay snapshot
// the way the upstream expects them. Marked record keys travel as sorted
// comma-joined lists so identical states produce identical requests.
func QueryParams(fs model.FilterState, marks map[string]model.Decision) url.Values {
	params := url.Values{}
	if !fs.From.IsZero() {
		params.Set("date_from", fs.From.Format("2006-01-02"))
	}
	if !fs.To.IsZero() {
		params.Set("date_to", fs.To.Format("2006-01-02"))
	}
	if fs.Platform != "" {
		params.Set("platform", fs.Platform)
	}
	if fs.Buyer != "" {
		params.Set("buyer", fs.Buyer)
	}
	if fs.Account != "" {
		params.Set("account", fs.Account)
	}
	if fs.Status != "" {
		params.Set("status", string(fs.Status))
	}
	if fs.Search != "" {
		params.Set("q", fs.Search)
	}
	if fs.Category != "" {
		params.Set("category", fs.Category)
	}
	if fs.Geography != "" {
		params.Set("province", fs.Geography)
	}
	if fs.BuyerClass != "" {
		params.Set("class", string(fs.BuyerClass))
	}
	if fs.Decision != "" {
		params.Set("decision", string(fs.Decision))
	}

	var accepted, rejected []string
	for key, d := range marks {
		switch d {
		case model.DecisionAccepted:
			accepted = append(accepted, key)
		case model.DecisionRejected:
			rejected = append(rejected, key)
		}
	}
	sort.Strings(accepted)
	sort.Strings(rejected)
	if len(accepted) > 0 {
		params.Set("accepted", strings.Join(accepted, ","))
	}
	if len(rejected) > 0 {
		params.Set("rejected", strings.Join(rejected, ","))
	}
	return params
}
