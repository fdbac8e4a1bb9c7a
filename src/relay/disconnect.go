package relay

import "github.com/orchestra-mcp/relay/src/types"

// Disconnect runs before the transport tears a socket down. The departure is
// announced while the socket is still a room member, then the record and the
// room subscription are removed.
func (e *Engine) Disconnect(socketID string) {
	e.depart(socketID)

	e.mu.Lock()
	delete(e.retired, socketID)
	e.mu.Unlock()
}

// HandleLeave processes an explicit leave-room. The socket stays connected
// but cannot join again.
func (e *Engine) HandleLeave(socketID string, _ types.Event) error {
	if !e.depart(socketID) {
		return nil
	}
	e.mu.Lock()
	e.retired[socketID] = struct{}{}
	e.mu.Unlock()
	return nil
}

func (e *Engine) depart(socketID string) bool {
	user, ok := e.reg.FindBySocketID(socketID)
	if !ok {
		return false
	}

	e.broadcast(user.RoomID, socketID, types.UserDisconnected, types.UserPayload{User: user})
	e.reg.Remove(socketID)
	e.transport.Unsubscribe(user.RoomID, socketID)

	e.stats().MemberLeft()
	e.publishActivity(types.UserDisconnected, user)
	e.logger.Info().
		Str("socket_id", socketID).
		Str("room_id", user.RoomID).
		Str("username", user.Username).
		Msg("user left")
	return true
}
