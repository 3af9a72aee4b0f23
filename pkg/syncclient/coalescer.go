package syncclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/synergy-ops/synergy-ops/internal/rows"
)

const (
	defaultDebounce   = 350 * time.Millisecond
	defaultRetryDelay = 700 * time.Millisecond

	// Save timeout scales with payload size: 4s per 250KB, clamped.
	timeoutPerChunk = 4 * time.Second
	timeoutChunk    = 250 * 1024
	timeoutMin      = 12 * time.Second
	timeoutMax      = 32 * time.Second
)

// SaveFunc persists a full snapshot of rows; usually Client.SaveRows.
type SaveFunc func(ctx context.Context, snapshot []rows.InventoryRow) error

// CoalescerConfig configures the write coalescer. Zero durations take the
// production defaults.
type CoalescerConfig struct {
	Save       SaveFunc
	Logger     *slog.Logger
	Debounce   time.Duration
	RetryDelay time.Duration
}

// Coalescer collapses rapid successive saves into few bulk writes. Each
// Save replaces the pending snapshot outright; snapshots are never merged,
// because each one is already the complete current state. A save that is
// superseded before it completes resolves as not-an-error.
type Coalescer struct {
	cfg CoalescerConfig

	mu       sync.Mutex
	pending  *saveWork
	timer    *time.Timer
	inflight *flight
}

type saveWork struct {
	snapshot []rows.InventoryRow
	done     chan error
}

type flight struct {
	cancel  context.CancelFunc
	aborted atomic.Bool
}

// NewCoalescer constructs Coalescer.
func NewCoalescer(cfg CoalescerConfig) *Coalescer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	return &Coalescer{cfg: cfg}
}

// Save schedules snapshot for persistence after the debounce window and
// returns a channel that yields the outcome. A snapshot replaced by a later
// Save, and an in-flight request aborted by a newer snapshot, both resolve
// nil: the newer save owns the data.
func (c *Coalescer) Save(snapshot []rows.InventoryRow) <-chan error {
	work := &saveWork{snapshot: snapshot, done: make(chan error, 1)}

	c.mu.Lock()
	if c.pending != nil {
		c.pending.done <- nil
	}
	c.pending = work
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.cfg.Debounce, c.flush)
	c.mu.Unlock()

	return work.done
}

// Flush sends any pending snapshot immediately, skipping the remainder of
// the debounce window.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()
	c.flush()
}

func (c *Coalescer) flush() {
	c.mu.Lock()
	work := c.pending
	c.pending = nil
	if work == nil {
		c.mu.Unlock()
		return
	}
	if c.inflight != nil {
		// A newer snapshot is taking over; the old request may still be
		// racing to the server but its outcome no longer matters.
		c.inflight.aborted.Store(true)
		c.inflight.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	fl := &flight{cancel: cancel}
	c.inflight = fl
	c.mu.Unlock()

	go c.send(ctx, fl, work)
}

func (c *Coalescer) send(ctx context.Context, fl *flight, work *saveWork) {
	timeout := payloadTimeout(work.snapshot)

	err := c.attempt(ctx, work.snapshot, timeout)
	if err != nil && !fl.aborted.Load() {
		c.cfg.Logger.Warn("syncclient: bulk save failed, retrying",
			slog.Any("error", err))
		select {
		case <-ctx.Done():
		case <-time.After(c.cfg.RetryDelay):
			if !fl.aborted.Load() {
				err = c.attempt(ctx, work.snapshot, timeout)
			}
		}
	}

	c.mu.Lock()
	if c.inflight == fl {
		c.inflight = nil
	}
	c.mu.Unlock()

	if fl.aborted.Load() {
		work.done <- nil
		return
	}
	work.done <- err
}

func (c *Coalescer) attempt(ctx context.Context, snapshot []rows.InventoryRow, timeout time.Duration) error {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.cfg.Save(attemptCtx, snapshot)
}

// payloadTimeout scales the per-attempt deadline with the serialized
// payload size so a slow uplink saving a large batch is not cut off at the
// small-payload deadline.
func payloadTimeout(snapshot []rows.InventoryRow) time.Duration {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return timeoutMin
	}
	scaled := time.Duration(len(data)) * timeoutPerChunk / timeoutChunk
	if scaled < timeoutMin {
		return timeoutMin
	}
	if scaled > timeoutMax {
		return timeoutMax
	}
	return scaled
}
