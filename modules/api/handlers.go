package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes configures all HTTP routes.
func (m *Module) setupRoutes() {
	m.app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1
	api := m.app.Group("/api/v1")
	api.Get("/rooms", m.listRooms)
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	stats, err := m.relayPort.Stats(c.UserContext())
	if err != nil {
		m.logger.Warn("Health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status: "unhealthy",
			Details: map[string]any{
				"error": "relay unavailable",
			},
		})
	}

	resp := HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":         "api",
			"connections":    stats.Connections,
			"occupied":       stats.Occupied,
			"dropped_events": stats.DroppedEvents,
			"rooms":          stats.Rooms,
		},
	}

	rooms, err := m.activityPort.RoomActivity(c.UserContext())
	if err != nil {
		m.logger.Warn("Activity unavailable", "error", err)
		resp.Status = "degraded"
		return c.JSON(resp)
	}
	resp.Activity = rooms
	return c.JSON(resp)
}

// listRooms handles GET /api/v1/rooms.
func (m *Module) listRooms(c *fiber.Ctx) error {
	rooms, err := m.relayPort.ListRooms(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to list rooms", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}
	return c.JSON(RoomListResponse{Rooms: rooms})
}
