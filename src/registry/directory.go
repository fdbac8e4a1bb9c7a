package registry

import "github.com/orchestra-mcp/relay/src/types"

// Directory answers room membership questions from the registry.
// It holds no state of its own.
type Directory struct {
	reg *Registry
}

// NewDirectory creates a directory view over reg.
func NewDirectory(reg *Registry) *Directory {
	return &Directory{reg: reg}
}

// RoomOf returns the room a socket has joined. A false result means the
// socket never joined or has already left.
func (d *Directory) RoomOf(socketID string) (string, bool) {
	u, ok := d.reg.FindBySocketID(socketID)
	if !ok {
		return "", false
	}
	return u.RoomID, true
}

// MembersOf returns the members of roomID in join order.
func (d *Directory) MembersOf(roomID string) []types.User {
	return d.reg.FindByRoom(roomID)
}

// UsernameTaken reports whether username is already used in roomID.
// Comparison is case-sensitive.
func (d *Directory) UsernameTaken(roomID, username string) bool {
	for _, u := range d.MembersOf(roomID) {
		if u.Username == username {
			return true
		}
	}
	return false
}
