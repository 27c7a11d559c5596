package activity

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// RoomActivity holds the counters kept for one room.
type RoomActivity struct {
	RoomID       string    `json:"room_id"`
	Joins        int64     `json:"joins"`
	Leaves       int64     `json:"leaves"`
	Disconnects  int64     `json:"disconnects"`
	Messages     int64     `json:"messages"`
	LastActivity time.Time `json:"last_activity"`
}

// Tracker accumulates per-room counters from relay events.
type Tracker struct {
	mu    sync.RWMutex
	rooms map[string]*RoomActivity
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{rooms: make(map[string]*RoomActivity)}
}

func (t *Tracker) room(roomID string) *RoomActivity {
	ra, ok := t.rooms[roomID]
	if !ok {
		ra = &RoomActivity{RoomID: roomID}
		t.rooms[roomID] = ra
	}
	return ra
}

// touch moves LastActivity forward; events may arrive out of order.
func (ra *RoomActivity) touch(at time.Time) {
	if at.After(ra.LastActivity) {
		ra.LastActivity = at
	}
}

// RecordJoin counts a join. Live member counts come from the relay.
func (t *Tracker) RecordJoin(roomID string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ra := t.room(roomID)
	ra.Joins++
	ra.touch(at)
}

// RecordLeave counts a departure. Disconnects are counted separately from
// explicit leaves and room switches.
func (t *Tracker) RecordLeave(roomID string, disconnect bool, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ra := t.room(roomID)
	if disconnect {
		ra.Disconnects++
	} else {
		ra.Leaves++
	}
	ra.touch(at)
}

// RecordMessage counts an accepted message.
func (t *Tracker) RecordMessage(roomID string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ra := t.room(roomID)
	ra.Messages++
	ra.touch(at)
}

// Snapshot returns a copy of every room's counters ordered by room ID.
func (t *Tracker) Snapshot() []RoomActivity {
	t.mu.RLock()
	out := make([]RoomActivity, 0, len(t.rooms))
	for _, ra := range t.rooms {
		out = append(out, *ra)
	}
	t.mu.RUnlock()

	slices.SortFunc(out, func(a, b RoomActivity) int {
		return strings.Compare(a.RoomID, b.RoomID)
	})
	return out
}

// Totals sums the counters across rooms.
func (t *Tracker) Totals() (joins, messages int64) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, ra := range t.rooms {
		joins += ra.Joins
		messages += ra.Messages
	}
	return joins, messages
}
