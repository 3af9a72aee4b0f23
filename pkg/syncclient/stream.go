package syncclient

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

// Handler consumes the decoded payload of one named event.
type Handler func(data json.RawMessage)

// StreamConfig configures the event stream client.
type StreamConfig struct {
	BaseURL string
	// UserID is best-effort identity appended as a query parameter;
	// empty is tolerated.
	UserID      string
	Client      *http.Client
	Logger      *slog.Logger
	RedialDelay time.Duration
}

// Stream maintains a long-lived push connection and fans typed events out
// to caller-supplied handlers. There is no backoff, no dedup on reconnect
// and no resume-from-offset: a reconnect can miss events, and callers
// compensate with a periodic full refresh.
type Stream struct {
	cfg     StreamConfig
	dropped atomic.Uint64
}

// NewStream constructs Stream.
func NewStream(cfg StreamConfig) *Stream {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RedialDelay <= 0 {
		cfg.RedialDelay = 3 * time.Second
	}
	return &Stream{cfg: cfg}
}

// Dropped reports how many events were discarded because their payload was
// not valid JSON.
func (s *Stream) Dropped() uint64 {
	return s.dropped.Load()
}

// Subscribe opens the connection and dispatches events until the returned
// stop function is called. Handlers for unknown event names are simply
// never invoked.
func (s *Stream) Subscribe(handlers map[string]Handler) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	go s.run(ctx, handlers)
	return cancel
}

func (s *Stream) run(ctx context.Context, handlers map[string]Handler) {
	endpoint := s.cfg.BaseURL + "/events"
	if s.cfg.UserID != "" {
		endpoint += "?user_id=" + url.QueryEscape(s.cfg.UserID)
	}
	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.connectOnce(ctx, endpoint, handlers); err != nil && ctx.Err() == nil {
			// Connection errors are not surfaced; the caller's UI shows a
			// disconnected banner off its own refresh failures.
			s.cfg.Logger.Debug("syncclient: stream disconnected", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.RedialDelay):
		}
	}
}

func (s *Stream) connectOnce(ctx context.Context, endpoint string, handlers map[string]Handler) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := s.cfg.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return errUnexpectedStatus(resp.StatusCode)
	}
	return readEvents(resp.Body, func(name string, data []byte) {
		s.dispatch(name, data, handlers)
	})
}

func (s *Stream) dispatch(name string, data []byte, handlers map[string]Handler) {
	handler, ok := handlers[name]
	if !ok || handler == nil {
		return
	}
	if !json.Valid(data) {
		// A malformed push must not kill the stream; drop it but keep the
		// loss observable.
		s.dropped.Add(1)
		s.cfg.Logger.Warn("syncclient: drop malformed event", slog.String("event", name))
		return
	}
	handler(json.RawMessage(data))
}

type errUnexpectedStatus int

func (e errUnexpectedStatus) Error() string {
	return "syncclient: unexpected stream status " + http.StatusText(int(e))
}

// readEvents parses the text/event-stream framing, emitting each complete
// event. Comment lines and id/retry fields are ignored.
func readEvents(r io.Reader, emit func(name string, data []byte)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var (
		name string
		data []byte
	)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if name != "" && len(data) > 0 {
				emit(name, data)
			}
			name, data = "", nil
		case strings.HasPrefix(line, ":"):
			// heartbeat comment
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "data:"):
			chunk := strings.TrimPrefix(line[len("data:"):], " ")
			if len(data) > 0 {
				data = append(data, '\n')
			}
			data = append(data, chunk...)
		}
	}
	return scanner.Err()
}
