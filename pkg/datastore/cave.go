package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"htem/fanc/pkg/policy/engine"
	"htem/fanc/pkg/telemetry/tracing"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// CAVEConfig configures a CAVEClient.
type CAVEConfig struct {
	// BaseURL is the service root, e.g. "https://cave.fanc-fly.com".
	BaseURL string

	// Dataset is the full dataset name, e.g. "fanc_production_mar2021".
	Dataset string

	// Token is sent as a bearer token.
	Token string

	// Timeout bounds each request.
	// Default: 30 seconds
	Timeout time.Duration

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// CAVEClient is a Store backed by a remote annotation service.
//
// Endpoints, relative to BaseURL:
//
//	GET  /api/v1/datasets/{dataset}/tables/{table}/segments/{segment}/annotations
//	GET  /api/v1/datasets/{dataset}/tables/{table}/annotations/{id}
//	POST /api/v1/datasets/{dataset}/tables/{table}/annotations
//	POST /api/v1/datasets/{dataset}/tables/{table}/search
//	GET  /api/v1/datasets/{dataset}/points?x=&y=&z=
//	GET  /api/v1/health
type CAVEClient struct {
	base    *url.URL
	dataset string
	token   string
	client  *http.Client
}

// NewCAVEClient creates a client. It does not contact the service.
func NewCAVEClient(cfg CAVEConfig) (*CAVEClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL cannot be empty")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.Dataset == "" {
		return nil, errors.New("dataset cannot be empty")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
			Timeout: cfg.Timeout,
		}
	}

	return &CAVEClient{
		base:    base,
		dataset: cfg.Dataset,
		token:   cfg.Token,
		client:  client,
	}, nil
}

// Backend returns "cave".
func (c *CAVEClient) Backend() string { return "cave" }

// Dataset returns the dataset this client addresses.
func (c *CAVEClient) Dataset() string { return c.dataset }

// Close releases idle connections.
func (c *CAVEClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// Ping calls the service health endpoint.
func (c *CAVEClient) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, c.base.JoinPath("api", "v1", "health"), nil, nil)
}

func (c *CAVEClient) tableURL(table string, elem ...string) *url.URL {
	parts := append([]string{"api", "v1", "datasets", c.dataset, "tables", table}, elem...)
	return c.base.JoinPath(parts...)
}

// FetchAnnotations returns the pairs attached to segment in table.
func (c *CAVEClient) FetchAnnotations(ctx context.Context, table string, segment uint64) ([]engine.Pair, error) {
	rows, err := c.Annotations(ctx, table, segment)
	if err != nil {
		return nil, err
	}
	return pairs(rows), nil
}

// Annotations returns the rows attached to segment in table.
func (c *CAVEClient) Annotations(ctx context.Context, table string, segment uint64) ([]Annotation, error) {
	var rows []Annotation
	u := c.tableURL(table, "segments", strconv.FormatUint(segment, 10), "annotations")
	if err := c.do(ctx, "fetch", http.MethodGet, u, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

type postRequest struct {
	SegmentID uint64 `json:"segment_id"`
	Tag       string `json:"tag"`
	Tag2      string `json:"tag2,omitempty"`
	UserID    int64  `json:"user_id"`
}

type postResponse struct {
	ID int64 `json:"id"`
}

// PostAnnotation posts r and returns the ID assigned by the service.
func (c *CAVEClient) PostAnnotation(ctx context.Context, r Record) (int64, error) {
	if err := validateRecord(r); err != nil {
		return 0, err
	}

	req := postRequest{SegmentID: r.Segment, Tag: r.Pair.Value, Tag2: r.Pair.Class, UserID: r.UserID}
	var resp postResponse
	if err := c.do(ctx, "post", http.MethodPost, c.tableURL(r.Table, "annotations"), req, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// GetAnnotation returns the row with id.
func (c *CAVEClient) GetAnnotation(ctx context.Context, table string, id int64) (Annotation, error) {
	var a Annotation
	u := c.tableURL(table, "annotations", strconv.FormatInt(id, 10))
	if err := c.do(ctx, "get", http.MethodGet, u, nil, &a); err != nil {
		return Annotation{}, err
	}
	return a, nil
}

type searchRequest struct {
	Terms []string `json:"terms"`
}

type searchResponse struct {
	SegmentIDs []uint64 `json:"segment_ids"`
}

// FindSegments asks the service for segments carrying every term.
func (c *CAVEClient) FindSegments(ctx context.Context, table string, terms []string) ([]uint64, error) {
	var resp searchResponse
	if err := c.do(ctx, "search", http.MethodPost, c.tableURL(table, "search"), searchRequest{Terms: terms}, &resp); err != nil {
		return nil, err
	}
	return resp.SegmentIDs, nil
}

type pointResponse struct {
	SegmentID uint64 `json:"segment_id"`
}

// ResolvePoint asks the service which segment contains p.
func (c *CAVEClient) ResolvePoint(ctx context.Context, p Point) (uint64, error) {
	u := c.base.JoinPath("api", "v1", "datasets", c.dataset, "points")
	q := url.Values{}
	q.Set("x", strconv.FormatInt(p[0], 10))
	q.Set("y", strconv.FormatInt(p[1], 10))
	q.Set("z", strconv.FormatInt(p[2], 10))
	u.RawQuery = q.Encode()

	var resp pointResponse
	if err := c.do(ctx, "resolve point", http.MethodGet, u, nil, &resp); err != nil {
		return 0, err
	}
	return resp.SegmentID, nil
}

// do sends one request. body and out are JSON encoded and decoded when
// non-nil. There are no retries.
func (c *CAVEClient) do(ctx context.Context, op, method string, u *url.URL, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	tracing.Inject(ctx, req.Header)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("annotation service %s failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Operation: op, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}
