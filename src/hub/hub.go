package hub

import (
	"sync"
	"time"

	"github.com/orchestra-mcp/relay/src/metrics"
	"github.com/orchestra-mcp/relay/src/types"
	"github.com/rs/zerolog"
)

// Hub manages all WebSocket client connections and room subscriptions.
// Registration, unregistration and inbound events are processed one at a
// time by Run, which makes Run the only writer of relay state.
type Hub struct {
	clients map[string]*Client
	rooms   map[string]map[string]bool // room -> set of clientIDs

	register   chan *Client
	unregister chan *Client
	incoming   chan types.Event

	handlers  map[string]types.EventHandler
	onDisconn []func(string)

	sendBuffer   int
	pingInterval time.Duration
	metrics      *metrics.Metrics

	mu       sync.RWMutex
	logger   zerolog.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Hub.
type Option func(*Hub)

// WithSendBuffer sets the per-client outbound queue length.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithPingInterval sets how often idle connections are pinged.
func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// New creates a new Hub instance.
func New(logger zerolog.Logger, opts ...Option) *Hub {
	h := &Hub{
		clients:      make(map[string]*Client),
		rooms:        make(map[string]map[string]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		incoming:     make(chan types.Event, 256),
		handlers:     make(map[string]types.EventHandler),
		sendBuffer:   256,
		pingInterval: 25 * time.Second,
		logger:       logger,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub event loop. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case ev := <-h.incoming:
			h.handleEvent(ev)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop halts the hub event loop and closes every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register queues a client for registration.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister queues a client for removal.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) addClient(c *Client) {
	if c == nil {
		return
	}
	h.mu.Lock()
	h.clients[c.ID] = c
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.ConnectionOpened()
	h.logger.Info().Str("socket_id", c.ID).Int("clients", count).Msg("client registered")
}

// removeClient runs disconnect callbacks while the client is still a room
// member, then drops it from every room and closes it.
func (h *Hub) removeClient(c *Client) {
	h.mu.RLock()
	_, ok := h.clients[c.ID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	for _, cb := range h.disconnectCallbacks() {
		cb(c.ID)
	}

	h.mu.Lock()
	delete(h.clients, c.ID)
	for room, subs := range h.rooms {
		delete(subs, c.ID)
		if len(subs) == 0 {
			delete(h.rooms, room)
		}
	}
	count := len(h.clients)
	h.mu.Unlock()

	c.Close()
	h.metrics.ConnectionClosed()
	h.logger.Info().Str("socket_id", c.ID).Int("clients", count).Msg("client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
		if err := c.conn.Close(); err != nil {
			h.logger.Debug().Err(err).Str("socket_id", c.ID).Msg("close on shutdown")
		}
	}
	h.logger.Info().Int("clients", len(clients)).Msg("hub stopped")
}

func (h *Hub) disconnectCallbacks() []func(string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append(([]func(string))(nil), h.onDisconn...)
}
