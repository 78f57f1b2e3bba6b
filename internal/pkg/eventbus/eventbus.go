package eventbus

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const subscriberBuffer = 64

var (
	eventsPublishedTotal = expvar.NewInt("eventbus_published_total")
	eventsDroppedTotal   = expvar.NewInt("eventbus_dropped_total")
)

// Bus publishes JSON events over Redis Pub/Sub so every API instance sees
// them. Without a Redis client it falls back to in-process delivery.
type Bus struct {
	client *redis.Client

	mu    sync.RWMutex
	local map[string]map[chan []byte]struct{}
}

// New creates a bus. client may be nil.
func New(client *redis.Client) *Bus {
	return &Bus{
		client: client,
		local:  make(map[string]map[chan []byte]struct{}),
	}
}

// Publish encodes v as JSON and sends it on channel
func (b *Bus) Publish(ctx context.Context, channel string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("eventbus: encode %s event: %w", channel, err)
	}

	if b.client != nil {
		if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
			return fmt.Errorf("eventbus: publish %s: %w", channel, err)
		}
		eventsPublishedTotal.Add(1)
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.local[channel] {
		select {
		case ch <- data:
		default:
			eventsDroppedTotal.Add(1)
			log.Warn().Str("channel", channel).Msg("Event subscriber buffer full")
		}
	}
	eventsPublishedTotal.Add(1)
	return nil
}

// Subscribe returns the payloads published on channel until ctx is done.
// The returned channel is closed when the subscription ends.
func (b *Bus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	out := make(chan []byte, subscriberBuffer)

	if b.client == nil {
		b.mu.Lock()
		if b.local[channel] == nil {
			b.local[channel] = make(map[chan []byte]struct{})
		}
		b.local[channel][out] = struct{}{}
		b.mu.Unlock()

		go func() {
			<-ctx.Done()
			b.mu.Lock()
			delete(b.local[channel], out)
			b.mu.Unlock()
			close(out)
		}()
		return out, nil
	}

	pubsub := b.client.Subscribe(ctx, channel)
	// Wait for the subscription to be confirmed before returning.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("eventbus: subscribe %s: %w", channel, err)
	}

	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				default:
					eventsDroppedTotal.Add(1)
					log.Warn().Str("channel", channel).Msg("Event subscriber buffer full")
				}
			}
		}
	}()
	return out, nil
}
