package relay

import (
	"encoding/json"
	"fmt"

	"github.com/orchestra-mcp/relay/src/types"
)

// HandleJoin processes a join-request. A socket joins at most once; repeated
// requests from a joined or retired socket are ignored.
func (e *Engine) HandleJoin(socketID string, ev types.Event) error {
	if _, joined := e.reg.FindBySocketID(socketID); joined || e.isRetired(socketID) {
		e.logger.Debug().Str("socket_id", socketID).Msg("join ignored, socket already joined once")
		return nil
	}

	var req types.JoinRequestPayload
	if err := json.Unmarshal(ev.Data, &req); err != nil {
		return fmt.Errorf("decode join request: %w: %w", ErrInvalidPayload, err)
	}
	if req.RoomID == "" || req.Username == "" {
		return fmt.Errorf("join request without room or username: %w", ErrInvalidPayload)
	}

	if e.dir.UsernameTaken(req.RoomID, req.Username) {
		e.emit(socketID, types.UsernameExists, nil)
		e.stats().JoinRejected()
		e.logger.Info().
			Str("socket_id", socketID).
			Str("room_id", req.RoomID).
			Str("username", req.Username).
			Msg("username exists")
		return nil
	}

	user := types.User{
		SocketID: socketID,
		Username: req.Username,
		RoomID:   req.RoomID,
		Status:   types.StatusOnline,
	}
	if err := e.reg.Add(user); err != nil {
		return fmt.Errorf("register %s: %w", socketID, err)
	}
	if !e.transport.Subscribe(req.RoomID, socketID) {
		e.reg.Remove(socketID)
		e.logger.Warn().Str("socket_id", socketID).Msg("socket gone before room subscribe, join dropped")
		return nil
	}

	e.broadcast(req.RoomID, socketID, types.UserJoined, types.UserPayload{User: user})
	e.emit(socketID, types.JoinAccepted, types.JoinAcceptedPayload{
		User:  user,
		Users: e.dir.MembersOf(req.RoomID),
	})

	e.stats().JoinAccepted()
	e.publishActivity(types.UserJoined, user)
	e.logger.Info().
		Str("socket_id", socketID).
		Str("room_id", req.RoomID).
		Str("username", req.Username).
		Msg("user joined")
	return nil
}
