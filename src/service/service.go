package service

import (
	"fmt"
	"sort"

	"github.com/orchestra-mcp/relay/src/hub"
	"github.com/orchestra-mcp/relay/src/registry"
	"github.com/orchestra-mcp/relay/src/relay"
	"github.com/orchestra-mcp/relay/src/types"
	"github.com/rs/zerolog"
)

// RoomSummary describes an active room.
type RoomSummary struct {
	RoomID  string `json:"roomId"`
	Members int    `json:"members"`
}

// Service provides the high-level relay API on top of the hub.
type Service struct {
	hub    *hub.Hub
	reg    *registry.Registry
	engine *relay.Engine
	logger zerolog.Logger
}

// New creates a relay service backed by the given hub and registry, and
// routes every relay event kind through a new engine.
func New(h *hub.Hub, reg *registry.Registry, logger zerolog.Logger) *Service {
	s := &Service{
		hub:    h,
		reg:    reg,
		engine: relay.New(reg, h, logger),
		logger: logger,
	}
	for event, handler := range s.engine.Handlers() {
		s.RegisterHandler(event, handler)
	}
	h.OnDisconnection(s.engine.Disconnect)
	return s
}

// Hub returns the underlying hub.
func (s *Service) Hub() *hub.Hub { return s.hub }

// Engine returns the relay engine.
func (s *Service) Engine() *relay.Engine { return s.engine }

// RegisterHandler registers an event handler on the hub.
func (s *Service) RegisterHandler(event string, handler types.EventHandler) {
	s.hub.RegisterHandler(event, handler)
	s.logger.Debug().Str("event", event).Msg("handler registered")
}

// GetConnectedClients returns IDs of all connected sockets, joined or not.
func (s *Service) GetConnectedClients() []string {
	return s.hub.ConnectedClients()
}

// GetClientInfo returns info for a connected client, or error.
func (s *Service) GetClientInfo(clientID string) (*types.ClientInfo, error) {
	info := s.hub.ClientInfo(clientID)
	if info == nil {
		return nil, fmt.Errorf("client %s not found", clientID)
	}
	return info, nil
}

// GetRooms returns active rooms sorted by id.
func (s *Service) GetRooms() []RoomSummary {
	counts := s.reg.Rooms()
	rooms := make([]RoomSummary, 0, len(counts))
	for id, n := range counts {
		rooms = append(rooms, RoomSummary{RoomID: id, Members: n})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomID < rooms[j].RoomID })
	return rooms
}

// GetMembers returns the members of roomID in join order, or an error when
// the room has no members.
func (s *Service) GetMembers(roomID string) ([]types.User, error) {
	members := s.engine.Directory().MembersOf(roomID)
	if len(members) == 0 {
		return nil, fmt.Errorf("room %s not found", roomID)
	}
	return members, nil
}

// JoinedCount returns the number of sockets that have joined a room.
func (s *Service) JoinedCount() int {
	return s.reg.Len()
}
