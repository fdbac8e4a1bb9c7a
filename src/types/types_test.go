package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent(UsernameExists, nil)
	require.NoError(t, err)
	assert.Nil(t, ev.Data)

	raw := json.RawMessage(`{"x":1}`)
	ev, err = NewEvent(DrawingUpdate, raw)
	require.NoError(t, err)
	assert.Equal(t, raw, ev.Data)

	ev, err = NewEvent(JoinRequest, JoinRequestPayload{RoomID: "X", Username: "alice"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"roomId":"X","username":"alice"}`, string(ev.Data))

	_, err = NewEvent(SendMessage, make(chan int))
	assert.Error(t, err)
}

func TestEventEnvelope(t *testing.T) {
	ev := Event{Event: UsernameExists, SocketID: "s1"}
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"username-exists"}`, string(data))

	var in Event
	require.NoError(t, json.Unmarshal([]byte(`{"event":"send-message","data":{"message":"hi"}}`), &in))
	assert.Equal(t, SendMessage, in.Event)
	assert.JSONEq(t, `{"message":"hi"}`, string(in.Data))
	assert.Empty(t, in.SocketID)
}

func TestOutbound(t *testing.T) {
	assert.Equal(t, ReceiveMessage, Outbound(SendMessage))
	for _, kind := range RoomEvents {
		if kind != SendMessage {
			assert.Equal(t, kind, Outbound(kind))
		}
	}
}

func TestUserJSONShape(t *testing.T) {
	file := "main.go"
	u := User{SocketID: "s1", Username: "alice", RoomID: "X", Status: StatusOnline, CurrentFile: &file}
	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"socketId":"s1","username":"alice","roomId":"X","status":"online",
		"cursorPosition":0,"typing":false,"currentFile":"main.go"}`, string(data))
}
