package hub

import (
	"github.com/orchestra-mcp/relay/src/types"
)

// handleEvent dispatches ev to its handler. Events still queued from a
// client that has already been unregistered are dropped.
func (h *Hub) handleEvent(ev types.Event) {
	h.mu.RLock()
	_, connected := h.clients[ev.SocketID]
	handler, ok := h.handlers[ev.Event]
	h.mu.RUnlock()

	if !connected {
		h.logger.Debug().Str("event", ev.Event).Str("socket_id", ev.SocketID).Msg("event from departed client dropped")
		return
	}
	if !ok {
		h.logger.Debug().Str("event", ev.Event).Str("socket_id", ev.SocketID).Msg("no handler")
		return
	}
	if err := handler(ev.SocketID, ev); err != nil {
		h.logger.Error().Err(err).Str("event", ev.Event).Str("socket_id", ev.SocketID).Msg("handler error")
	}
}

// BroadcastToRoom enqueues ev for every subscriber of room except exceptID
// and returns how many clients accepted it. Full buffers drop the event.
func (h *Hub) BroadcastToRoom(room, exceptID string, ev types.Event) int {
	h.mu.RLock()
	subs, ok := h.rooms[room]
	if !ok {
		h.mu.RUnlock()
		return 0
	}
	// Copy recipients to avoid holding the lock during sends.
	targets := make([]*Client, 0, len(subs))
	for id := range subs {
		if id == exceptID {
			continue
		}
		if c, exists := h.clients[id]; exists {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.enqueue(ev) {
			delivered++
			h.metrics.Delivered()
			continue
		}
		h.metrics.Dropped()
		h.logger.Warn().Str("socket_id", c.ID).Str("event", ev.Event).Msg("send buffer full, dropping")
	}
	return delivered
}

// Subscribe adds a client to a room's broadcast group.
func (h *Hub) Subscribe(room, clientID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[clientID]
	if !ok {
		return false
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]bool)
	}
	h.rooms[room][clientID] = true
	c.addRoom(room)
	return true
}

// Unsubscribe removes a client from a room's broadcast group.
func (h *Hub) Unsubscribe(room, clientID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.rooms[room]
	if !ok {
		return false
	}
	delete(subs, clientID)
	if len(subs) == 0 {
		delete(h.rooms, room)
	}
	if c, ok := h.clients[clientID]; ok {
		c.removeRoom(room)
	}
	return true
}

// SendToClient sends an event directly to a specific client.
func (h *Hub) SendToClient(clientID string, ev types.Event) bool {
	h.mu.RLock()
	client, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	if !client.enqueue(ev) {
		h.metrics.Dropped()
		return false
	}
	h.metrics.Delivered()
	return true
}
