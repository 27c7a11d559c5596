package relay

import (
	domain "github.com/example/community-chat-relay/domain/chat"
)

// HistoryCapacity is the maximum number of messages kept per room.
const HistoryCapacity = 100

// DefaultOutboxSize is the number of events buffered per connection before
// further events to that connection are dropped.
const DefaultOutboxSize = 256

// Names of events sent from the relay to clients.
const (
	EventRooms        = "rooms"
	EventJoinedRoom   = "joined-room"
	EventRoomMessages = "room-messages"
	EventUserJoined   = "user-joined"
	EventUserLeft     = "user-left"
	EventUserCount    = "user-count"
	EventNewMessage   = "new-message"
	EventError        = "error"
)

// Event is a single relay-to-client event.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// LeaveReason tells why a connection left a room.
type LeaveReason string

// Leave reasons.
const (
	LeaveExplicit   LeaveReason = "leave"
	LeaveSwitch     LeaveReason = "switch"
	LeaveDisconnect LeaveReason = "disconnect"
)

// Observer is notified after relay state changes have been applied and all
// relay locks released. Implementations must not call back into the relay
// for the same connection synchronously.
type Observer interface {
	MemberJoined(roomID, previousRoomID, connID, username string, members int)
	MemberLeft(roomID, connID, username string, members int, reason LeaveReason)
	MessageAccepted(roomID, connID string, msg domain.Message)
}

// RoomStats is a point-in-time view of one room.
type RoomStats struct {
	ID       string `json:"id"`
	Members  int    `json:"members"`
	Messages int    `json:"messages"`
}

// Stats is a point-in-time view of the relay.
type Stats struct {
	Connections   int         `json:"connections"`
	Occupied      int         `json:"occupied"`
	DroppedEvents int64       `json:"dropped_events"`
	Rooms         []RoomStats `json:"rooms"`
}

func errorEvent(err error) Event {
	return Event{Name: EventError, Data: clientReason(err)}
}

type nopObserver struct{}

func (nopObserver) MemberJoined(string, string, string, string, int)    {}
func (nopObserver) MemberLeft(string, string, string, int, LeaveReason) {}
func (nopObserver) MessageAccepted(string, string, domain.Message)      {}
