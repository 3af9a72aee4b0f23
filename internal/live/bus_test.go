package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testBus(t *testing.T) *Bus {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBus(client, "test.events", slog.Default())
}

func TestPublishReachesSubscriber(t *testing.T) {
	bus := testBus(t)
	ctx := context.Background()

	events, stop := bus.Subscribe(ctx)
	defer stop()

	// Give the subscription goroutine a moment to attach.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, bus.Publish(ctx, EventRowDeleted, map[string]string{"synergyId": "LAP-0001"}))

	select {
	case evt := <-events:
		require.Equal(t, EventRowDeleted, evt.Name)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(evt.Data, &payload))
		require.Equal(t, "LAP-0001", payload["synergyId"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribeStopClosesChannel(t *testing.T) {
	bus := testBus(t)

	events, stop := bus.Subscribe(context.Background())
	time.Sleep(50 * time.Millisecond)
	stop()

	select {
	case _, open := <-events:
		require.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after stop")
	}
}

func TestPublishRejectsUnmarshalablePayload(t *testing.T) {
	bus := testBus(t)
	err := bus.Publish(context.Background(), EventRowUpserted, make(chan int))
	require.Error(t, err)
}
