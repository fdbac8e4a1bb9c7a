package types

import (
	"encoding/json"
	"time"
)

// Event is a WebSocket frame exchanged with collaboration clients.
// Data is carried verbatim; only the envelope is interpreted server-side.
type Event struct {
	Event    string          `json:"event"`
	Data     json.RawMessage `json:"data,omitempty"`
	SocketID string          `json:"-"`
}

// EventHandler handles an inbound event from a connected socket.
type EventHandler func(socketID string, ev Event) error

// Status is the presence status of a joined user.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// User is the registry record for a joined connection.
type User struct {
	SocketID       string  `json:"socketId"`
	Username       string  `json:"username"`
	RoomID         string  `json:"roomId"`
	Status         Status  `json:"status"`
	CursorPosition int     `json:"cursorPosition"`
	Typing         bool    `json:"typing"`
	CurrentFile    *string `json:"currentFile"`
}

// ClientInfo holds metadata about a connected WebSocket client.
type ClientInfo struct {
	ID          string    `json:"id"`
	ConnectedAt time.Time `json:"connected_at"`
	Rooms       []string  `json:"rooms"`
	RemoteAddr  string    `json:"remote_addr,omitempty"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}

// Pinger is implemented by connections that support keepalive pings.
type Pinger interface {
	Ping() error
}

// NewEvent builds an outbound event, encoding data when it is not already raw JSON.
func NewEvent(name string, data any) (Event, error) {
	if data == nil {
		return Event{Event: name}, nil
	}
	if raw, ok := data.(json.RawMessage); ok {
		return Event{Event: name, Data: raw}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Event: name, Data: raw}, nil
}

// Activity is a presence transition published to external observers.
type Activity struct {
	Event     string    `json:"event"`
	RoomID    string    `json:"roomId"`
	User      User      `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}
