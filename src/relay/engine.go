package relay

import (
	"errors"
	"sync"
	"time"

	"github.com/orchestra-mcp/relay/src/metrics"
	"github.com/orchestra-mcp/relay/src/registry"
	"github.com/orchestra-mcp/relay/src/types"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidPayload is returned when an envelope field cannot be decoded.
	ErrInvalidPayload = errors.New("relay: invalid payload")
	// ErrMissingTarget is returned when a targeted event names no socket.
	ErrMissingTarget = errors.New("relay: missing target socket")
)

// Transport is the set of delivery primitives the engine needs from the hub.
type Transport interface {
	Subscribe(room, socketID string) bool
	Unsubscribe(room, socketID string) bool
	BroadcastToRoom(room, exceptID string, ev types.Event) int
	SendToClient(socketID string, ev types.Event) bool
}

// ActivityPublisher receives presence transitions for external observers.
type ActivityPublisher interface {
	PublishActivity(a types.Activity) error
	Available() bool
}

// Engine implements the join protocol, event relay and disconnect handling.
// Its handlers are meant to run on the hub's event loop.
type Engine struct {
	reg       *registry.Registry
	dir       *registry.Directory
	transport Transport
	logger    zerolog.Logger

	mu      sync.RWMutex
	bridge  ActivityPublisher
	metrics *metrics.Metrics
	retired map[string]struct{}
}

// New creates an engine over reg that delivers through t.
func New(reg *registry.Registry, t Transport, logger zerolog.Logger) *Engine {
	return &Engine{
		reg:       reg,
		dir:       registry.NewDirectory(reg),
		transport: t,
		logger:    logger.With().Str("component", "relay").Logger(),
		retired:   make(map[string]struct{}),
	}
}

// SetBridge attaches a publisher for join/leave activity.
func (e *Engine) SetBridge(b ActivityPublisher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bridge = b
}

// SetMetrics attaches Prometheus collectors.
func (e *Engine) SetMetrics(m *metrics.Metrics) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = m
}

// Directory exposes the membership view the engine works from.
func (e *Engine) Directory() *registry.Directory { return e.dir }

// Handlers returns the inbound event handlers keyed by event kind.
func (e *Engine) Handlers() map[string]types.EventHandler {
	handlers := map[string]types.EventHandler{
		types.JoinRequest: e.HandleJoin,
		types.LeaveRoom:   e.HandleLeave,
	}
	for _, kind := range types.RoomEvents {
		handlers[kind] = e.roomHandler(kind)
	}
	for _, kind := range types.TargetedEvents {
		handlers[kind] = e.targetHandler(kind)
	}
	return handlers
}

func (e *Engine) roomHandler(kind string) types.EventHandler {
	return func(socketID string, ev types.Event) error {
		e.Relay(kind, socketID, ev.Data)
		return nil
	}
}

func (e *Engine) targetHandler(kind string) types.EventHandler {
	return func(socketID string, ev types.Event) error {
		return e.Unicast(kind, socketID, ev.Data)
	}
}

func (e *Engine) stats() *metrics.Metrics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.metrics
}

func (e *Engine) isRetired(socketID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.retired[socketID]
	return ok
}

// emit sends a single event to one socket.
func (e *Engine) emit(socketID, name string, data any) {
	ev, err := types.NewEvent(name, data)
	if err != nil {
		e.logger.Error().Err(err).Str("event", name).Msg("encode event")
		return
	}
	if !e.transport.SendToClient(socketID, ev) {
		e.logger.Debug().Str("socket_id", socketID).Str("event", name).Msg("send dropped")
	}
}

// broadcast sends an event to every member of room except exceptID.
func (e *Engine) broadcast(room, exceptID, name string, data any) int {
	ev, err := types.NewEvent(name, data)
	if err != nil {
		e.logger.Error().Err(err).Str("event", name).Msg("encode event")
		return 0
	}
	return e.transport.BroadcastToRoom(room, exceptID, ev)
}

func (e *Engine) publishActivity(event string, u types.User) {
	e.mu.RLock()
	b := e.bridge
	e.mu.RUnlock()

	if b == nil || !b.Available() {
		return
	}
	a := types.Activity{Event: event, RoomID: u.RoomID, User: u, Timestamp: time.Now()}
	if err := b.PublishActivity(a); err != nil {
		e.logger.Debug().Err(err).Str("event", event).Msg("activity not queued")
	}
}
