package relay

import (
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/example/community-chat-relay/config"
	domain "github.com/example/community-chat-relay/domain/chat"
	"pgregory.net/rapid"
)

// relayMachine drives a Relay with random operations and keeps a model of
// the expected room logs and memberships.
type relayMachine struct {
	relay  *Relay
	conns  map[string]*Conn
	nextID int

	rooms      []string
	memberOf   map[string]string           // connID -> roomID
	logs       map[string][]domain.Message // roomID -> expected log
	usernames  []string
	unknownIDs []string
}

func newRelayMachine(t *rapid.T) *relayMachine {
	seeds := config.DefaultRooms()
	r, err := New(seeds, newMockLogger(), WithIDGenerator(sequentialIDs()), WithOutboxSize(8))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m := &relayMachine{
		relay:      r,
		conns:      make(map[string]*Conn),
		memberOf:   make(map[string]string),
		logs:       make(map[string][]domain.Message),
		usernames:  []string{"alice", "bob", "carol"},
		unknownIDs: []string{"nonexistent", "General", ""},
	}
	for _, s := range seeds {
		m.rooms = append(m.rooms, s.ID)
	}
	return m
}

func (m *relayMachine) pickConn(t *rapid.T) string {
	if len(m.conns) == 0 {
		t.Skip("no connections")
	}
	ids := make([]string, 0, len(m.conns))
	for id := range m.conns {
		ids = append(ids, id)
	}
	// Map order is random; sort so draws are reproducible.
	slices.Sort(ids)
	return rapid.SampledFrom(ids).Draw(t, "conn")
}

func (m *relayMachine) connect(t *rapid.T) {
	id := "c" + strconv.Itoa(m.nextID)
	m.nextID++
	c, err := m.relay.Connect(id)
	if err != nil {
		t.Fatalf("Connect(%s): %v", id, err)
	}
	m.conns[id] = c
}

func (m *relayMachine) join(t *rapid.T) {
	id := m.pickConn(t)
	roomID := rapid.SampledFrom(append(append([]string{}, m.rooms...), m.unknownIDs...)).Draw(t, "room")
	username := rapid.SampledFrom(m.usernames).Draw(t, "username")

	err := m.relay.Join(id, roomID, username)
	if !slices.Contains(m.rooms, roomID) {
		if err == nil {
			t.Fatalf("Join(%s, %q) into unknown room succeeded", id, roomID)
		}
		return
	}
	if err != nil {
		t.Fatalf("Join(%s, %s): %v", id, roomID, err)
	}
	m.memberOf[id] = roomID
}

func (m *relayMachine) send(t *rapid.T) {
	id := m.pickConn(t)
	roomID, joined := m.memberOf[id]
	if !joined || rapid.IntRange(0, 9).Draw(t, "wrong-room") == 0 {
		roomID = rapid.SampledFrom(m.rooms).Draw(t, "room")
	}
	count := rapid.IntRange(1, 60).Draw(t, "count")

	for i := 0; i < count; i++ {
		msg, err := m.relay.Send(id, roomID, "user", "  body "+strconv.Itoa(i)+" ")
		if m.memberOf[id] != roomID {
			if err == nil {
				t.Fatalf("Send(%s, %s) accepted from a non-member", id, roomID)
			}
			return
		}
		if err != nil {
			t.Fatalf("Send(%s, %s): %v", id, roomID, err)
		}
		if strings.TrimSpace(msg.Message) != msg.Message {
			t.Fatalf("message body not trimmed: %q", msg.Message)
		}
		log := append(m.logs[roomID], msg)
		if len(log) > HistoryCapacity {
			log = log[len(log)-HistoryCapacity:]
		}
		m.logs[roomID] = log
	}
}

func (m *relayMachine) leave(t *rapid.T) {
	id := m.pickConn(t)
	err := m.relay.Leave(id, "user")
	if _, joined := m.memberOf[id]; !joined {
		if err == nil {
			t.Fatalf("Leave(%s) succeeded while unjoined", id)
		}
		return
	}
	if err != nil {
		t.Fatalf("Leave(%s): %v", id, err)
	}
	delete(m.memberOf, id)
}

func (m *relayMachine) disconnect(t *rapid.T) {
	id := m.pickConn(t)
	m.relay.Disconnect(id)
	delete(m.conns, id)
	delete(m.memberOf, id)
}

func (m *relayMachine) drainAll(_ *rapid.T) {
	for _, c := range m.conns {
		drain(c)
	}
}

// check compares the relay against the model.
func (m *relayMachine) check(t *rapid.T) {
	counts := make(map[string]int)
	for _, roomID := range m.memberOf {
		counts[roomID]++
	}

	seen := make(map[string]string)
	for _, roomID := range m.rooms {
		rm := m.relay.rooms[roomID]
		rm.mu.Lock()
		log := rm.snapshot()
		members := make([]string, 0, len(rm.members))
		for id := range rm.members {
			members = append(members, id)
		}
		rm.mu.Unlock()

		if len(log) > HistoryCapacity {
			t.Fatalf("room %s holds %d messages", roomID, len(log))
		}
		want := m.logs[roomID]
		if len(log) != len(want) {
			t.Fatalf("room %s log length %d, want %d", roomID, len(log), len(want))
		}
		for i := range want {
			if log[i].ID != want[i].ID {
				t.Fatalf("room %s log[%d] = %s, want %s", roomID, i, log[i].ID, want[i].ID)
			}
		}

		if len(members) != counts[roomID] {
			t.Fatalf("room %s has %d members, want %d", roomID, len(members), counts[roomID])
		}
		for _, id := range members {
			if other, dup := seen[id]; dup {
				t.Fatalf("connection %s is in both %s and %s", id, other, roomID)
			}
			seen[id] = roomID
			if m.memberOf[id] != roomID {
				t.Fatalf("connection %s found in %s, want %q", id, roomID, m.memberOf[id])
			}
		}
	}
}

func TestRelay_StateMachine(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := newRelayMachine(t)
		t.Repeat(map[string]func(*rapid.T){
			"connect":    m.connect,
			"join":       m.join,
			"send":       m.send,
			"leave":      m.leave,
			"disconnect": m.disconnect,
			"drain":      m.drainAll,
			"":           m.check,
		})
	})
}

func TestRoom_EvictionKeepsNewest(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(0, 3*HistoryCapacity).Draw(t, "total")
		rm := newRoom(domain.RoomConfig{ID: "r"})

		for i := 0; i < total; i++ {
			rm.append(domain.Message{ID: strconv.Itoa(i)})
		}

		log := rm.snapshot()
		want := min(total, HistoryCapacity)
		if len(log) != want {
			t.Fatalf("log length %d, want %d", len(log), want)
		}
		first := total - want
		for i, msg := range log {
			if msg.ID != strconv.Itoa(first+i) {
				t.Fatalf("log[%d] = %s, want %d", i, msg.ID, first+i)
			}
		}
	})
}
