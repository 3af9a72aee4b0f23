package syncclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadEventsParsesFraming(t *testing.T) {
	input := strings.Join([]string{
		": ping",
		"",
		"event: row.upserted",
		"data: {\"synergyId\":\"LAP-0001\"}",
		"",
		"event: row.deleted",
		"data: {\"synergyId\":",
		"data: \"LAP-0002\"}",
		"",
		"data: {\"orphan\":true}",
		"",
	}, "\n") + "\n"

	type frame struct {
		name string
		data string
	}
	var frames []frame
	err := readEvents(strings.NewReader(input), func(name string, data []byte) {
		frames = append(frames, frame{name: name, data: string(data)})
	})
	require.NoError(t, err)

	// The comment line and the nameless frame are both skipped; the
	// multi-line data field is joined with a newline.
	require.Len(t, frames, 2)
	require.Equal(t, "row.upserted", frames[0].name)
	require.JSONEq(t, `{"synergyId":"LAP-0001"}`, frames[0].data)
	require.Equal(t, "row.deleted", frames[1].name)
	require.JSONEq(t, `{"synergyId":"LAP-0002"}`, frames[1].data)
}

func TestDispatchDropsMalformedPayload(t *testing.T) {
	s := NewStream(StreamConfig{BaseURL: "http://unused"})

	var delivered []string
	handlers := map[string]Handler{
		"row.upserted": func(data json.RawMessage) {
			delivered = append(delivered, string(data))
		},
	}

	s.dispatch("row.upserted", []byte(`{"synergyId":"LAP-0001"}`), handlers)
	s.dispatch("row.upserted", []byte(`{"synergyId": oops`), handlers)
	s.dispatch("row.upserted", []byte(`{"synergyId":"LAP-0002"}`), handlers)
	s.dispatch("stats.unknown", []byte(`{}`), handlers)

	// The malformed frame is counted and skipped; later frames still land.
	require.Equal(t, uint64(1), s.Dropped())
	require.Len(t, delivered, 2)
	require.Contains(t, delivered[1], "LAP-0002")
}

func TestSubscribeDeliversEventsFromServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/events", r.URL.Path)
		require.Equal(t, "tester-1", r.URL.Query().Get("user_id"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte(": ping\n\n"))
		_, _ = w.Write([]byte("event: row.upserted\ndata: {\"synergyId\":\"LAP-0001\"}\n\n"))
		_, _ = w.Write([]byte("event: row.upserted\ndata: {broken\n\n"))
		_, _ = w.Write([]byte("event: row.deleted\ndata: {\"synergyId\":\"LAP-0001\"}\n\n"))
		flusher.Flush()
	}))
	defer server.Close()

	stream := NewStream(StreamConfig{
		BaseURL:     server.URL,
		UserID:      "tester-1",
		RedialDelay: time.Hour, // one connection is enough for the test
	})

	var (
		mu      sync.Mutex
		deleted bool
		upserts []string
	)
	stop := stream.Subscribe(map[string]Handler{
		"row.upserted": func(data json.RawMessage) {
			mu.Lock()
			upserts = append(upserts, string(data))
			mu.Unlock()
		},
		"row.deleted": func(data json.RawMessage) {
			mu.Lock()
			deleted = true
			mu.Unlock()
		},
	})
	defer stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return deleted
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	// The broken frame between the two good ones was dropped, not fatal.
	require.Len(t, upserts, 1)
	require.Equal(t, uint64(1), stream.Dropped())
}

func TestSubscribeStopEndsRedialLoop(t *testing.T) {
	var mu sync.Mutex
	dials := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		dials++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	stream := NewStream(StreamConfig{BaseURL: server.URL, RedialDelay: 10 * time.Millisecond})
	stop := stream.Subscribe(nil)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return dials >= 2
	}, 5*time.Second, 5*time.Millisecond)

	stop()
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	after := dials
	mu.Unlock()
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, after, dials)
}
