package syncclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/synergy-ops/synergy-ops/internal/live"
	"github.com/synergy-ops/synergy-ops/internal/rows"
)

// ListFunc fetches rows for one status; usually Client.ListRows.
type ListFunc func(ctx context.Context, status rows.Status) ([]rows.InventoryRow, error)

// Cache is the in-memory keyed row collection a dashboard renders. It is
// kept consistent against periodic full refreshes and incremental push
// events with last-write-wins semantics per key; there is deliberately no
// version-stamped merge.
type Cache struct {
	mu     sync.Mutex
	rows   []rows.InventoryRow
	view   []rows.Status
	list   ListFunc
	logger *slog.Logger
}

// NewCache constructs Cache. view names the statuses this dashboard
// displays; rows outside it are never inserted from push events.
func NewCache(list ListFunc, view []rows.Status, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{list: list, view: view, logger: logger}
}

// Rows returns a copy of the current cache contents in order.
func (c *Cache) Rows() []rows.InventoryRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]rows.InventoryRow, len(c.rows))
	copy(out, c.rows)
	return out
}

// Len reports the number of cached rows.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

// Refresh issues one fetch per visible status in parallel, merges the
// results through the dedup map and replaces the entire cache.
func (c *Cache) Refresh(ctx context.Context) error {
	results := make([][]rows.InventoryRow, len(c.view))
	g, ctx := errgroup.WithContext(ctx)
	for i, status := range c.view {
		g.Go(func() error {
			part, err := c.list(ctx, status)
			if err != nil {
				return err
			}
			results[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	var merged []rows.InventoryRow
	for _, part := range results {
		merged = append(merged, part...)
	}
	deduped := dedupe(merged)
	c.mu.Lock()
	c.rows = deduped
	c.mu.Unlock()
	return nil
}

// ApplyLocal applies an optimistic local edit: replace by key, or prepend
// when the key is new. The edit shows immediately, before any round-trip.
func (c *Cache) ApplyLocal(row rows.InventoryRow) {
	key := row.Key()
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexOf(key); idx >= 0 {
		next := c.copyRows()
		next[idx] = row
		c.rows = next
		return
	}
	c.rows = append([]rows.InventoryRow{row}, c.rows...)
}

// ApplyUpsert merges an incremental push payload into the cache. Fields
// absent from the payload keep their cached value. A payload whose status
// is INTAKE removes an existing row: the visible stages never include
// pre-processing rows.
func (c *Cache) ApplyUpsert(payload json.RawMessage) {
	var probe struct {
		ID        int64       `json:"id"`
		SynergyID string      `json:"synergyId"`
		Status    rows.Status `json:"status"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		c.logger.Warn("cache: drop unreadable upsert", slog.Any("error", err))
		return
	}
	key := probe.SynergyID
	if key == "" {
		key = strconv.FormatInt(probe.ID, 10)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexOf(key); idx >= 0 {
		if probe.Status == rows.StatusIntake {
			next := c.copyRows()
			c.rows = append(next[:idx], next[idx+1:]...)
			return
		}
		merged := c.rows[idx]
		if err := json.Unmarshal(payload, &merged); err != nil {
			c.logger.Warn("cache: drop unmergeable upsert", slog.Any("error", err))
			return
		}
		next := c.copyRows()
		next[idx] = merged
		c.rows = next
		return
	}

	var row rows.InventoryRow
	if err := json.Unmarshal(payload, &row); err != nil {
		c.logger.Warn("cache: drop unreadable upsert", slog.Any("error", err))
		return
	}
	if !c.inView(row.Status) {
		return
	}
	c.rows = append([]rows.InventoryRow{row}, c.rows...)
}

// ApplyDelete removes a row by key. No confirmation, no undo.
func (c *Cache) ApplyDelete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(key)
	if idx < 0 {
		return
	}
	next := c.copyRows()
	c.rows = append(next[:idx], next[idx+1:]...)
}

// StreamHandlers wires the cache to a Stream. The bulk-upsert payload
// carries only a count, so it is a refresh trigger, not data; refresh is
// invoked regardless of the count value.
func (c *Cache) StreamHandlers(refresh func()) map[string]Handler {
	return map[string]Handler{
		live.EventRowUpserted: c.ApplyUpsert,
		live.EventRowDeleted: func(data json.RawMessage) {
			var payload struct {
				SynergyID string `json:"synergyId"`
			}
			if err := json.Unmarshal(data, &payload); err != nil || payload.SynergyID == "" {
				return
			}
			c.ApplyDelete(payload.SynergyID)
		},
		live.EventRowBulkUpserted: func(json.RawMessage) {
			if refresh != nil {
				refresh()
			}
		},
	}
}

// dedupe collapses duplicate keys, keeping first-appearance order and the
// last-occurring duplicate's value.
func dedupe(in []rows.InventoryRow) []rows.InventoryRow {
	index := make(map[string]int, len(in))
	out := make([]rows.InventoryRow, 0, len(in))
	for _, row := range in {
		key := row.Key()
		if at, ok := index[key]; ok {
			out[at] = row
			continue
		}
		index[key] = len(out)
		out = append(out, row)
	}
	return out
}

func (c *Cache) indexOf(key string) int {
	for i, row := range c.rows {
		if row.Key() == key {
			return i
		}
	}
	return -1
}

func (c *Cache) copyRows() []rows.InventoryRow {
	next := make([]rows.InventoryRow, len(c.rows))
	copy(next, c.rows)
	return next
}

func (c *Cache) inView(status rows.Status) bool {
	for _, s := range c.view {
		if s == status {
			return true
		}
	}
	return false
}
