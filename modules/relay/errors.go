package relay

import "errors"

// Sentinel errors for relay operations.
var (
	// ErrRoomNotFound is returned when an event names a room that was not
	// seeded, or a room the sending connection does not occupy.
	ErrRoomNotFound = errors.New("room not found")

	// ErrNotAMember is returned when a connection that occupies no room
	// leaves or sends.
	ErrNotAMember = errors.New("not a member of any room")

	// ErrUnknownConnection is returned for connection IDs that are not
	// connected (never connected, or already disconnected).
	ErrUnknownConnection = errors.New("unknown connection")

	// ErrDuplicateConnection is returned when Connect is called twice with
	// the same live connection ID.
	ErrDuplicateConnection = errors.New("connection already registered")

	// ErrEmptyUsername is returned when a join carries no username.
	ErrEmptyUsername = errors.New("username is required")

	// ErrNoRooms is returned when the relay is seeded with an empty room list.
	ErrNoRooms = errors.New("at least one room is required")

	// ErrInvalidRoom is returned when a seeded room has an empty or
	// duplicated identifier.
	ErrInvalidRoom = errors.New("invalid room configuration")
)

// Reasons carried by error events sent to clients.
const (
	ReasonRoomNotFound    = "Room not found"
	ReasonUsernameMissing = "Username is required"
)

// clientReason maps a relay error to the text sent in an error event.
func clientReason(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return ReasonRoomNotFound
	case errors.Is(err, ErrEmptyUsername):
		return ReasonUsernameMissing
	default:
		return err.Error()
	}
}
