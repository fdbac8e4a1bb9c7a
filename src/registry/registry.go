package registry

import (
	"errors"
	"sync"

	"github.com/orchestra-mcp/relay/src/types"
)

// ErrDuplicateSocket is returned by Add when the socket id is already registered.
var ErrDuplicateSocket = errors.New("registry: socket already registered")

// Registry is the process-wide table of joined connections.
// Records are kept in join order so room snapshots are stable.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	records map[string]types.User
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		records: make(map[string]types.User),
	}
}

// Add inserts a record keyed by its socket id.
func (r *Registry) Add(u types.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[u.SocketID]; ok {
		return ErrDuplicateSocket
	}
	r.records[u.SocketID] = u
	r.order = append(r.order, u.SocketID)
	return nil
}

// Remove deletes the record for socketID and returns it, if present.
func (r *Registry) Remove(socketID string) (types.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.records[socketID]
	if !ok {
		return types.User{}, false
	}
	delete(r.records, socketID)
	for i, id := range r.order {
		if id == socketID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return u, true
}

// FindBySocketID looks up a single record.
func (r *Registry) FindBySocketID(socketID string) (types.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.records[socketID]
	return u, ok
}

// FindByRoom returns the records of roomID in join order.
func (r *Registry) FindByRoom(roomID string) []types.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]types.User, 0)
	for _, id := range r.order {
		if u := r.records[id]; u.RoomID == roomID {
			users = append(users, u)
		}
	}
	return users
}

// Len returns the number of joined connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Rooms returns room ids with their member counts.
func (r *Registry) Rooms() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]int)
	for _, u := range r.records {
		result[u.RoomID]++
	}
	return result
}
