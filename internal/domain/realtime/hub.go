package realtime

import (
	"context"
	"encoding/json"
	"expvar"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/redemption"
)

const sendBuffer = 256

var (
	wsConnectionsGauge   = expvar.NewInt("redemption_feed_connections")
	wsEventsSentTotal    = expvar.NewInt("redemption_feed_events_sent_total")
	wsEventsDroppedTotal = expvar.NewInt("redemption_feed_events_dropped_total")
)

// Subscriber delivers raw event payloads from a pub/sub channel
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Client is one admin dashboard connection. A non-nil MasonID narrows the
// feed to that mason's redemptions.
type Client struct {
	AdminID uuid.UUID
	MasonID *uuid.UUID
	Conn    *websocket.Conn
	Send    chan []byte
}

// Hub fans redemption events out to connected dashboards
type Hub struct {
	bus Subscriber

	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	ready      chan struct{}
	done       chan struct{}
}

// NewHub creates a hub reading from bus
func NewHub(bus Subscriber) *Hub {
	return &Hub{
		bus:        bus,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ready:      make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run subscribes to the redemption feed and manages connections until ctx
// is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	events, err := h.bus.Subscribe(ctx, redemption.EventsChannel)
	if err != nil {
		return err
	}
	close(h.ready)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h.manage(ctx)
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case payload, ok := <-events:
				if !ok {
					return nil
				}
				h.broadcast(payload)
			}
		}
	})
	err = g.Wait()
	h.closeAll()
	return err
}

// Ready is closed once Run has subscribed to the feed
func (h *Hub) Ready() <-chan struct{} {
	return h.ready
}

func (h *Hub) manage(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			wsConnectionsGauge.Add(1)
			log.Debug().Str("admin_id", c.AdminID.String()).Msg("Dashboard connected to redemption feed")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.Send)
				wsConnectionsGauge.Add(-1)
			}
			h.mu.Unlock()
			log.Debug().Str("admin_id", c.AdminID.String()).Msg("Dashboard disconnected from redemption feed")
		}
	}
}

func (h *Hub) broadcast(payload []byte) {
	var head struct {
		MasonID uuid.UUID `json:"mason_id"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		log.Warn().Err(err).Msg("Dropping malformed redemption event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.MasonID != nil && *c.MasonID != head.MasonID {
			continue
		}
		select {
		case c.Send <- payload:
			wsEventsSentTotal.Add(1)
		default:
			wsEventsDroppedTotal.Add(1)
			log.Warn().Str("admin_id", c.AdminID.String()).Msg("WebSocket send buffer full")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.Send)
		wsConnectionsGauge.Add(-1)
	}
}

// Register adds a connection. It returns false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ConnectionCount returns the number of connected dashboards
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
