package relay

import (
	"slices"
	"strings"
	"sync"

	domain "github.com/example/community-chat-relay/domain/chat"
)

// room holds one seeded room. Everything below mu is guarded by mu.
type room struct {
	id          string
	name        string
	description string

	mu      sync.Mutex
	members map[string]*member // connID -> member
	log     []domain.Message   // oldest first, len <= HistoryCapacity
}

type member struct {
	conn     *Conn
	username string
}

func newRoom(cfg domain.RoomConfig) *room {
	return &room{
		id:          cfg.ID,
		name:        cfg.Name,
		description: cfg.Description,
		members:     make(map[string]*member),
		log:         make([]domain.Message, 0, HistoryCapacity),
	}
}

// append adds msg to the log, evicting the oldest entry past capacity.
func (r *room) append(msg domain.Message) {
	if len(r.log) < HistoryCapacity {
		r.log = append(r.log, msg)
		return
	}
	copy(r.log, r.log[1:])
	r.log[len(r.log)-1] = msg
}

// snapshot returns a copy of the log, oldest first.
func (r *room) snapshot() []domain.Message {
	out := make([]domain.Message, len(r.log))
	copy(out, r.log)
	return out
}

// broadcast queues events, in order, to every current member.
func (r *room) broadcast(events ...Event) {
	for _, m := range r.members {
		for _, ev := range events {
			m.conn.Push(ev)
		}
	}
}

// summary and stats read the room; the caller holds r.mu.
func (r *room) summary() domain.RoomSummary {
	return domain.RoomSummary{
		ID:          r.id,
		Name:        r.name,
		Description: r.description,
		UserCount:   len(r.members),
	}
}

func (r *room) stats() RoomStats {
	return RoomStats{ID: r.id, Members: len(r.members), Messages: len(r.log)}
}

// lockRooms locks the distinct non-nil rooms in ascending ID order and
// returns the matching unlock function.
func lockRooms(rooms ...*room) func() {
	locked := make([]*room, 0, len(rooms))
	for _, r := range rooms {
		if r != nil && !slices.Contains(locked, r) {
			locked = append(locked, r)
		}
	}
	slices.SortFunc(locked, func(a, b *room) int {
		return strings.Compare(a.id, b.id)
	})
	for _, r := range locked {
		r.mu.Lock()
	}
	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].mu.Unlock()
		}
	}
}
