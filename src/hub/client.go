package hub

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/orchestra-mcp/relay/src/types"
)

// Client wraps a WebSocket connection and manages message flow.
type Client struct {
	ID          string
	RemoteAddr  string
	conn        types.Conn
	hub         *Hub
	Send        chan types.Event
	connectedAt time.Time
	rooms       map[string]bool
	mu          sync.RWMutex
	done        chan struct{}
	closed      bool
}

// NewClient creates a new WebSocket client wrapper.
func NewClient(id string, conn types.Conn, h *Hub) *Client {
	return &Client{
		ID:          id,
		conn:        conn,
		hub:         h,
		Send:        make(chan types.Event, h.sendBuffer),
		connectedAt: time.Now(),
		rooms:       make(map[string]bool),
		done:        make(chan struct{}),
	}
}

// Info returns metadata about this client.
func (c *Client) Info() types.ClientInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return types.ClientInfo{
		ID:          c.ID,
		ConnectedAt: c.connectedAt,
		Rooms:       rooms,
		RemoteAddr:  c.RemoteAddr,
	}
}

func (c *Client) addRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[room] = true
}

func (c *Client) removeRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, room)
}

// enqueue hands ev to the write pump without blocking.
func (c *Client) enqueue(ev types.Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- ev:
		return true
	default:
		return false
	}
}

// ReadPump reads events from the WebSocket and routes them to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		var ev types.Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if isMalformed(err) {
				c.hub.logger.Debug().Err(err).Str("socket_id", c.ID).Msg("malformed frame dropped")
				continue
			}
			c.hub.logger.Debug().Err(err).Str("socket_id", c.ID).Msg("read ended")
			return
		}
		ev.SocketID = c.ID
		select {
		case c.hub.incoming <- ev:
		case <-c.hub.done:
			return
		}
	}
}

// WritePump writes events from the send channel to the WebSocket and keeps
// the connection alive with pings when the connection supports them.
func (c *Client) WritePump() {
	pinger, canPing := c.conn.(types.Pinger)
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				c.hub.logger.Debug().Err(err).Str("socket_id", c.ID).Msg("write failed")
				return
			}
		case <-ticker.C:
			if !canPing {
				continue
			}
			if err := pinger.Ping(); err != nil {
				c.hub.logger.Debug().Err(err).Str("socket_id", c.ID).Msg("ping failed")
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close signals the client to stop its pumps.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
		close(c.Send)
	}
}

func isMalformed(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
