package relay

import (
	"testing"

	domain "github.com/example/community-chat-relay/domain/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoom_AppendEvictsOldest(t *testing.T) {
	rm := newRoom(domain.RoomConfig{ID: "general"})
	for i := 0; i < HistoryCapacity; i++ {
		rm.append(domain.Message{ID: "old"})
	}
	rm.append(domain.Message{ID: "new"})

	log := rm.snapshot()
	require.Len(t, log, HistoryCapacity)
	assert.Equal(t, "new", log[len(log)-1].ID)
	assert.Equal(t, HistoryCapacity, cap(rm.log))
}

func TestRoom_BroadcastOrder(t *testing.T) {
	rm := newRoom(domain.RoomConfig{ID: "general"})
	a := newConn("a", 8)
	b := newConn("b", 8)
	rm.members["a"] = &member{conn: a, username: "a"}
	rm.members["b"] = &member{conn: b, username: "b"}

	rm.broadcast(
		Event{Name: EventUserJoined, Data: "c"},
		Event{Name: EventUserCount, Data: 3},
	)

	for _, c := range []*Conn{a, b} {
		assert.Equal(t, []string{EventUserJoined, EventUserCount}, names(drain(c)))
	}
}

func TestLockRooms(t *testing.T) {
	general := newRoom(domain.RoomConfig{ID: "general"})
	islamic := newRoom(domain.RoomConfig{ID: "islamic"})

	tests := []struct {
		name  string
		rooms []*room
	}{
		{name: "ascending", rooms: []*room{general, islamic}},
		{name: "descending", rooms: []*room{islamic, general}},
		{name: "duplicate", rooms: []*room{general, general}},
		{name: "nil previous", rooms: []*room{nil, islamic}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unlock := lockRooms(tt.rooms...)
			for _, r := range tt.rooms {
				if r != nil {
					assert.False(t, r.mu.TryLock(), "room %s should be locked", r.id)
				}
			}
			unlock()

			for _, r := range []*room{general, islamic} {
				require.True(t, r.mu.TryLock(), "room %s should be unlocked", r.id)
				r.mu.Unlock()
			}
		})
	}
}

func TestConn_PushAfterClose(t *testing.T) {
	c := newConn("c", 1)
	assert.True(t, c.Push(Event{Name: EventUserCount, Data: 1}))
	assert.False(t, c.Push(Event{Name: EventUserCount, Data: 2}))
	assert.Equal(t, int64(1), c.Dropped())

	c.close()
	c.close()
	assert.False(t, c.Push(Event{Name: EventUserCount, Data: 3}))
	assert.Equal(t, int64(1), c.Dropped())
}
