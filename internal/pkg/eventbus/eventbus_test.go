package eventbus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Type string `json:"type"`
	N    int    `json:"n"`
}

func receive(t *testing.T, ch <-chan []byte) payload {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "subscription closed")
		var p payload
		require.NoError(t, json.Unmarshal(msg, &p))
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return payload{}
}

func TestLocalPublishSubscribe(t *testing.T) {
	bus := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, "redemptions.events")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), "redemptions.events", payload{Type: "created", N: 1}))
	require.NoError(t, bus.Publish(context.Background(), "other", payload{Type: "ignored"}))

	got := receive(t, ch)
	assert.Equal(t, payload{Type: "created", N: 1}, got)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed after cancel")
	}
}

func TestLocalPublishWithoutSubscribers(t *testing.T) {
	bus := New(nil)
	assert.NoError(t, bus.Publish(context.Background(), "redemptions.events", payload{Type: "x"}))
}

func TestRedisPublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subscriber := New(client)
	ch, err := subscriber.Subscribe(ctx, "redemptions.events")
	require.NoError(t, err)

	publisher := New(client)
	require.NoError(t, publisher.Publish(context.Background(), "redemptions.events", payload{Type: "status_changed", N: 2}))

	got := receive(t, ch)
	assert.Equal(t, "status_changed", got.Type)
	assert.Equal(t, 2, got.N)
}

func TestRedisPublishError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	err := New(client).Publish(context.Background(), "redemptions.events", payload{})
	assert.Error(t, err)
}

func TestPublishEncodeError(t *testing.T) {
	err := New(nil).Publish(context.Background(), "c", map[string]interface{}{"bad": make(chan int)})
	assert.Error(t, err)
}
