package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/wolfman30/patient-search-assistant/internal/patients"
	"github.com/wolfman30/patient-search-assistant/pkg/logging"
)

// ErrUnexpectedStatus is returned for non-2xx record store responses.
var ErrUnexpectedStatus = errors.New("recordstore: unexpected status")

// Config configures the record store client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the patient record store. It is safe for concurrent use;
// all requests share one keep-alive pool.
type Client struct {
	http   *resty.Client
	logger *logging.Logger
}

type wireResponse struct {
	Success bool            `json:"Success"`
	Message string          `json:"Message"`
	Data    json.RawMessage `json:"Data"`
}

// New creates a record store client.
func New(cfg Config, logger *logging.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("recordstore: base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("recordstore: invalid base url: %w", err)
	}
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("ngrok-skip-browser-warning", "true")

	return &Client{http: httpClient, logger: logger}, nil
}

// Search posts the filter to /patients. A single attempt is made; callers
// bound its duration.
func (c *Client) Search(ctx context.Context, filter patients.SearchFilter) (patients.SearchResult, error) {
	params := filter.WireParams()
	c.logger.Debug("record store search", "filter", params)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(params).
		Post("/patients")
	if err != nil {
		return patients.SearchResult{}, fmt.Errorf("recordstore: search: %w", err)
	}
	result, err := c.decode(resp)
	if err != nil {
		return patients.SearchResult{}, err
	}
	c.logger.Info("record store search complete",
		"success", result.Success,
		"record_count", result.Count(),
		"duration_ms", resp.Time().Milliseconds(),
	)
	return result, nil
}

// Get fetches one patient by id from /patients/{id}.
func (c *Client) Get(ctx context.Context, id string) (patients.SearchResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return patients.SearchResult{}, errors.New("recordstore: patient id is required")
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get("/patients/{id}")
	if err != nil {
		return patients.SearchResult{}, fmt.Errorf("recordstore: get patient: %w", err)
	}
	return c.decode(resp)
}

func (c *Client) decode(resp *resty.Response) (patients.SearchResult, error) {
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		c.logger.Error("record store returned error status",
			"status", resp.StatusCode(),
			"body", truncate(resp.String(), 512),
		)
		return patients.SearchResult{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	}

	var wire wireResponse
	if err := json.Unmarshal(resp.Body(), &wire); err != nil {
		return patients.SearchResult{}, fmt.Errorf("recordstore: decode response: %w", err)
	}
	records, err := decodeRecords(wire.Data)
	if err != nil {
		return patients.SearchResult{}, err
	}
	return patients.SearchResult{
		Success: wire.Success,
		Message: wire.Message,
		Records: records,
	}, nil
}

// decodeRecords accepts a list of records, a single record object or null.
func decodeRecords(raw json.RawMessage) ([]patients.Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []patients.Record{}, nil
	}
	if trimmed[0] == '{' {
		var one patients.Record
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("recordstore: decode record: %w", err)
		}
		return []patients.Record{one}, nil
	}
	var many []patients.Record
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return nil, fmt.Errorf("recordstore: decode records: %w", err)
	}
	if many == nil {
		many = []patients.Record{}
	}
	return many, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
