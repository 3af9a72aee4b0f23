// Package syncclient implements the console's live-sync core: a REST
// client, a Server-Sent-Events stream client, a keyed row cache that
// reconciles full refreshes with incremental push events, and a debounced
// write coalescer that turns rapid edits into few bulk saves.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/synergy-ops/synergy-ops/internal/categories"
	"github.com/synergy-ops/synergy-ops/internal/rows"
)

// Client talks to the console backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient constructs Client. httpClient and logger may be nil.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: baseURL, http: httpClient, logger: logger}
}

// ListRows fetches rows in one lifecycle stage.
func (c *Client) ListRows(ctx context.Context, status rows.Status) ([]rows.InventoryRow, error) {
	var result []rows.InventoryRow
	endpoint := c.baseURL + "/rows?status=" + url.QueryEscape(string(status))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SaveRows bulk-saves a snapshot of rows.
func (c *Client) SaveRows(ctx context.Context, snapshot []rows.InventoryRow) error {
	return c.do(ctx, http.MethodPut, c.baseURL+"/rows", snapshot, nil)
}

// PatchRow applies a partial update to one row.
func (c *Client) PatchRow(ctx context.Context, id int64, patch rows.RowPatch) (rows.InventoryRow, error) {
	var result rows.InventoryRow
	endpoint := c.baseURL + "/rows/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPatch, endpoint, patch, &result); err != nil {
		return rows.InventoryRow{}, err
	}
	return result, nil
}

// DeleteRow removes one row.
func (c *Client) DeleteRow(ctx context.Context, id int64) error {
	endpoint := c.baseURL + "/rows/" + strconv.FormatInt(id, 10)
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// ListCategories fetches all categories.
func (c *Client) ListCategories(ctx context.Context) ([]categories.Category, error) {
	var result []categories.Category
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/categories", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, target any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("syncclient: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("syncclient: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("syncclient: %s %s: %w", method, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("syncclient: %s %s: status %d: %s", method, endpoint, resp.StatusCode, payload)
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("syncclient: decode response: %w", err)
	}
	return nil
}
