package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// subscriberBuffer bounds the per-connection queue; a consumer that falls
// this far behind starts losing events and must rely on a full refresh.
const subscriberBuffer = 64

// EventCounter records published events, usually observability.Metrics.
type EventCounter interface {
	CountEvent(name string)
}

// Bus publishes events to a Redis channel and hands each SSE connection
// its own buffered subscription.
type Bus struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
	counter EventCounter
}

// NewBus constructs Bus.
func NewBus(client *redis.Client, channel string, logger *slog.Logger) *Bus {
	return &Bus{client: client, channel: channel, logger: logger}
}

// UseCounter attaches a counter incremented on every successful publish.
func (b *Bus) UseCounter(counter EventCounter) {
	b.counter = counter
}

// Publish marshals the payload and pushes the named event to all
// subscribers across instances.
func (b *Bus) Publish(ctx context.Context, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("live: marshal %s payload: %w", name, err)
	}
	envelope, err := json.Marshal(Event{Name: name, Data: data})
	if err != nil {
		return fmt.Errorf("live: marshal envelope: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, envelope).Err(); err != nil {
		return fmt.Errorf("live: publish %s: %w", name, err)
	}
	if b.counter != nil {
		b.counter.CountEvent(name)
	}
	return nil
}

// Subscribe returns a buffered event channel and a stop function. The
// channel closes after stop is called or the subscription dies. Slow
// consumers drop events rather than blocking publishers.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, func()) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	out := make(chan Event, subscriberBuffer)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				if b.logger != nil {
					b.logger.Warn("live: drop malformed envelope", slog.Any("error", err))
				}
				continue
			}
			select {
			case out <- evt:
			default:
				if b.logger != nil {
					b.logger.Warn("live: drop event for slow subscriber", slog.String("event", evt.Name))
				}
			}
		}
	}()

	return out, func() {
		_ = pubsub.Close()
	}
}
