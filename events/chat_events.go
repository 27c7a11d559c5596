package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MessageSentEvent is emitted when the relay accepts a message.
type MessageSentEvent struct {
	MessageID    string    `json:"message_id"`
	RoomID       string    `json:"room_id"`
	ConnectionID string    `json:"connection_id"`
	Username     string    `json:"username"`
	Length       int       `json:"length"`
	Timestamp    time.Time `json:"timestamp"`
}

// UserJoinedEvent is emitted when a connection joins a room.
type UserJoinedEvent struct {
	RoomID       string    `json:"room_id"`
	PreviousRoom string    `json:"previous_room,omitempty"`
	ConnectionID string    `json:"connection_id"`
	Username     string    `json:"username"`
	Members      int       `json:"members"`
	Timestamp    time.Time `json:"timestamp"`
}

// UserLeftEvent is emitted when a connection leaves a room, explicitly,
// by switching rooms or by disconnecting.
type UserLeftEvent struct {
	RoomID       string    `json:"room_id"`
	ConnectionID string    `json:"connection_id"`
	Username     string    `json:"username"`
	Members      int       `json:"members"`
	Reason       string    `json:"reason"` // "leave", "switch", "disconnect"
	Timestamp    time.Time `json:"timestamp"`
}

// Event definitions for the chat domain.
var (
	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"chat",
		"MessageSent",
		"v1",
	)

	UserJoinedV1 = helper.EventDefinition[UserJoinedEvent](
		"chat",
		"UserJoined",
		"v1",
	)

	UserLeftV1 = helper.EventDefinition[UserLeftEvent](
		"chat",
		"UserLeft",
		"v1",
	)
)
