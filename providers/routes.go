package providers

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes registers the static client, health, info and room query
// routes. The WebSocket upgrade and /metrics are served by dispatch.
func (s *Server) RegisterRoutes(router fiber.Router) {
	router.Get("/", s.handleIndex)
	router.Get("/assets/*", s.handleAsset)
	router.Get("/health", s.handleHealth)
	router.Get("/ws/info", s.handleInfo)

	api := router.Group("/api")
	api.Get("/clients", s.handleClients)
	api.Get("/rooms", s.handleRooms)
	api.Get("/rooms/:roomId/members", s.handleMembers)
}

func (s *Server) handleIndex(c fiber.Ctx) error {
	return c.SendFile(filepath.Join(s.cfg.PublicDir, "index.html"))
}

func (s *Server) handleAsset(c fiber.Ctx) error {
	rel := filepath.Clean("/" + c.Params("*"))
	if rel == "/" || strings.Contains(rel, "..") {
		return fiber.ErrNotFound
	}
	return c.SendFile(filepath.Join(s.cfg.PublicDir, "assets", rel))
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"clients": s.service.Hub().ClientCount(),
		"members": s.service.JoinedCount(),
	})
}

func (s *Server) handleInfo(c fiber.Ctx) error {
	h := s.service.Hub()
	return c.JSON(fiber.Map{
		"websocket":   true,
		"endpoint":    "/ws",
		"clients":     h.ClientCount(),
		"rooms":       len(s.service.GetRooms()),
		"subscribers": h.Rooms(),
		"bridge":      s.bridgeAvailable(),
	})
}

func (s *Server) handleClients(c fiber.Ctx) error {
	clients := s.service.GetConnectedClients()
	infos := make([]any, 0, len(clients))
	for _, id := range clients {
		info, err := s.service.GetClientInfo(id)
		if err == nil {
			infos = append(infos, info)
		}
	}
	return c.JSON(fiber.Map{
		"clients": infos,
		"count":   len(infos),
	})
}

func (s *Server) handleRooms(c fiber.Ctx) error {
	rooms := s.service.GetRooms()
	return c.JSON(fiber.Map{"rooms": rooms, "count": len(rooms)})
}

func (s *Server) handleMembers(c fiber.Ctx) error {
	roomID := c.Params("roomId")
	members, err := s.service.GetMembers(roomID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "room_not_found",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"roomId":  roomID,
		"members": members,
		"count":   len(members),
	})
}

func (s *Server) bridgeAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bridge != nil && s.bridge.Available()
}
