package api

import (
	"encoding/json"

	domain "github.com/example/community-chat-relay/domain/chat"
	"github.com/example/community-chat-relay/modules/activity"
)

// Client event names.
const (
	EventJoinRoom    = "join-room"
	EventSendMessage = "send-message"
	EventLeaveRoom   = "leave-room"
)

// Envelope is a single client-to-server WebSocket frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoomPayload is the payload of a join-room event.
type JoinRoomPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

// SendMessagePayload is the payload of a send-message event.
type SendMessagePayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// LeaveRoomPayload is the payload of a leave-room event.
type LeaveRoomPayload struct {
	Username string `json:"username"`
}

// RoomListResponse is the API response for listing rooms.
type RoomListResponse struct {
	Rooms []domain.RoomSummary `json:"rooms"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status   string                  `json:"status"`
	Details  map[string]any          `json:"details,omitempty"`
	Activity []activity.RoomActivity `json:"activity,omitempty"`
}
