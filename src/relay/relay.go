package relay

import (
	"encoding/json"
	"fmt"

	"github.com/orchestra-mcp/relay/src/types"
)

// targetField names the payload field carrying the destination socket.
const targetField = "socketId"

// Relay forwards payload to every other member of the sender's room under
// the outbound name for kind. Events from sockets that are not in a room are
// dropped. It returns the number of recipients.
func (e *Engine) Relay(kind, socketID string, payload json.RawMessage) int {
	room, ok := e.dir.RoomOf(socketID)
	if !ok {
		e.stats().Discarded("not_joined")
		e.logger.Debug().Str("socket_id", socketID).Str("event", kind).Msg("event from unjoined socket discarded")
		return 0
	}

	n := e.broadcast(room, socketID, types.Outbound(kind), payload)
	e.stats().Relayed(kind)
	e.logger.Debug().
		Str("socket_id", socketID).
		Str("room_id", room).
		Str("event", kind).
		Int("recipients", n).
		Msg("event relayed")
	return n
}

// Unicast delivers a targeted event to the socket named in the payload's
// socketId field, with that field removed. Sender and target must share a
// room.
func (e *Engine) Unicast(kind, socketID string, payload json.RawMessage) error {
	room, ok := e.dir.RoomOf(socketID)
	if !ok {
		e.stats().Discarded("not_joined")
		e.logger.Debug().Str("socket_id", socketID).Str("event", kind).Msg("event from unjoined socket discarded")
		return nil
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(payload, &fields); err != nil {
		return fmt.Errorf("decode %s: %w: %w", kind, ErrInvalidPayload, err)
	}
	var target string
	if raw, ok := fields[targetField]; ok {
		if err := json.Unmarshal(raw, &target); err != nil {
			return fmt.Errorf("decode %s target: %w: %w", kind, ErrInvalidPayload, err)
		}
	}
	if target == "" {
		e.stats().Discarded("no_target")
		return fmt.Errorf("%s from %s: %w", kind, socketID, ErrMissingTarget)
	}

	if targetRoom, ok := e.dir.RoomOf(target); !ok || targetRoom != room {
		e.stats().Discarded("target_not_in_room")
		e.logger.Debug().
			Str("socket_id", socketID).
			Str("target", target).
			Str("event", kind).
			Msg("target not in sender's room, discarded")
		return nil
	}

	delete(fields, targetField)
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	e.emit(target, kind, json.RawMessage(body))
	e.stats().Relayed(kind)
	return nil
}
