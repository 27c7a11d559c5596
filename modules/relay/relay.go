package relay

import (
	"fmt"
	"strings"
	"sync"
	"time"

	domain "github.com/example/community-chat-relay/domain/chat"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

// Relay owns the seeded rooms, their membership and their message logs, and
// routes connection events to room members.
//
// Each room has its own lock and each connection has its own session lock.
// Operations take the session lock first, then the affected room locks in
// ascending room ID order. Outbound events are queued while the room lock is
// held, so every member sees a room's events in the order they were applied.
type Relay struct {
	rooms map[string]*room // immutable after New
	order []string         // seeded order

	mu    sync.RWMutex
	conns map[string]*Conn

	observer   Observer
	outboxSize int
	now        func() time.Time
	newID      func() string
	logger     types.Logger
}

// Option configures a Relay.
type Option func(*Relay)

// WithObserver registers an observer for membership and message changes.
func WithObserver(o Observer) Option {
	return func(r *Relay) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithOutboxSize sets the per-connection outbound buffer size.
func WithOutboxSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.outboxSize = n
		}
	}
}

// WithClock overrides the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides the message ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(r *Relay) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// New creates a relay seeded with the given rooms, in order.
func New(seeds []domain.RoomConfig, logger types.Logger, opts ...Option) (*Relay, error) {
	if len(seeds) == 0 {
		return nil, ErrNoRooms
	}

	r := &Relay{
		rooms:      make(map[string]*room, len(seeds)),
		order:      make([]string, 0, len(seeds)),
		conns:      make(map[string]*Conn),
		observer:   nopObserver{},
		outboxSize: DefaultOutboxSize,
		now:        time.Now,
		newID:      newMessageID,
		logger:     logger,
	}
	for _, seed := range seeds {
		if seed.ID == "" {
			return nil, fmt.Errorf("%w: empty room id", ErrInvalidRoom)
		}
		if _, exists := r.rooms[seed.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate room id %q", ErrInvalidRoom, seed.ID)
		}
		r.rooms[seed.ID] = newRoom(seed)
		r.order = append(r.order, seed.ID)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// newMessageID returns a time-ordered identifier.
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Connect registers a new connection and queues the room list to it.
func (r *Relay) Connect(connID string) (*Conn, error) {
	r.mu.Lock()
	if _, exists := r.conns[connID]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateConnection, connID)
	}
	c := newConn(connID, r.outboxSize)
	r.conns[connID] = c
	r.mu.Unlock()

	c.Push(Event{Name: EventRooms, Data: r.Rooms()})
	r.logger.Info("Connection established", "connID", connID)
	return c, nil
}

// Join moves the connection into roomID, leaving its previous room if any.
// Unknown rooms are reported to the requester only.
func (r *Relay) Join(connID, roomID, username string) error {
	c, err := r.conn(connID)
	if err != nil {
		return err
	}
	if username == "" {
		c.Push(errorEvent(ErrEmptyUsername))
		return ErrEmptyUsername
	}
	target, ok := r.rooms[roomID]
	if !ok {
		c.Push(errorEvent(ErrRoomNotFound))
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}

	c.mu.Lock()
	if c.gone {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}

	prevID := c.roomID
	var prev *room
	if prevID != "" && prevID != roomID {
		prev = r.rooms[prevID]
	}

	unlock := lockRooms(prev, target)
	prevCount := 0
	if prev != nil {
		delete(prev.members, connID)
		prevCount = len(prev.members)
		prev.broadcast(
			Event{Name: EventUserLeft, Data: username},
			Event{Name: EventUserCount, Data: prevCount},
		)
	}

	target.members[connID] = &member{conn: c, username: username}
	c.roomID = roomID
	c.username = username

	c.Push(Event{Name: EventJoinedRoom, Data: roomID})
	c.Push(Event{Name: EventRoomMessages, Data: target.snapshot()})
	count := len(target.members)
	target.broadcast(
		Event{Name: EventUserJoined, Data: username},
		Event{Name: EventUserCount, Data: count},
	)
	unlock()
	c.mu.Unlock()

	if prev != nil {
		r.observer.MemberLeft(prevID, connID, username, prevCount, LeaveSwitch)
	}
	r.observer.MemberJoined(roomID, prevID, connID, username, count)
	r.logger.Info("User joined room", "connID", connID, "username", username, "roomID", roomID, "previousRoom", prevID)
	return nil
}

// Send appends a message to roomID and broadcasts it to every member,
// including the sender. The connection must currently occupy roomID.
func (r *Relay) Send(connID, roomID, username, body string) (domain.Message, error) {
	c, err := r.conn(connID)
	if err != nil {
		return domain.Message{}, err
	}
	target, ok := r.rooms[roomID]
	if !ok {
		c.Push(errorEvent(ErrRoomNotFound))
		return domain.Message{}, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}

	c.mu.Lock()
	if c.gone {
		c.mu.Unlock()
		return domain.Message{}, fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}
	if c.roomID != roomID {
		c.mu.Unlock()
		c.Push(errorEvent(ErrRoomNotFound))
		return domain.Message{}, fmt.Errorf("%w: %w", ErrRoomNotFound, ErrNotAMember)
	}

	target.mu.Lock()
	msg := domain.Message{
		ID:        r.newID(),
		Username:  username,
		Message:   strings.TrimSpace(body),
		Timestamp: r.now(),
	}
	target.append(msg)
	target.broadcast(Event{Name: EventNewMessage, Data: msg})
	target.mu.Unlock()
	c.mu.Unlock()

	r.observer.MessageAccepted(roomID, connID, msg)
	r.logger.Debug("Message accepted", "connID", connID, "roomID", roomID, "messageID", msg.ID)
	return msg, nil
}

// Leave removes the connection from its current room. Leaving while in no
// room emits nothing and returns ErrNotAMember.
func (r *Relay) Leave(connID, username string) error {
	c, err := r.conn(connID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.gone || c.roomID == "" {
		c.mu.Unlock()
		return ErrNotAMember
	}
	roomID, members := r.removeLocked(c, username)
	c.mu.Unlock()

	r.observer.MemberLeft(roomID, connID, username, members, LeaveExplicit)
	r.logger.Info("User left room", "connID", connID, "username", username, "roomID", roomID)
	return nil
}

// Disconnect forgets the connection. If it occupied a room, the remaining
// members are told it left, using the username it joined with. The outbox
// is closed and anything still queued to it is discarded by the transport.
func (r *Relay) Disconnect(connID string) {
	r.mu.Lock()
	c, ok := r.conns[connID]
	delete(r.conns, connID)
	r.mu.Unlock()
	if !ok {
		return
	}

	c.mu.Lock()
	c.gone = true
	var roomID, username string
	var members int
	if c.roomID != "" {
		username = c.username
		roomID, members = r.removeLocked(c, username)
	}
	c.mu.Unlock()
	c.close()

	if roomID != "" {
		r.observer.MemberLeft(roomID, connID, username, members, LeaveDisconnect)
		r.logger.Info("User disconnected from room", "connID", connID, "roomID", roomID)
	}
	r.logger.Info("Connection closed", "connID", connID, "dropped", c.Dropped())
}

// removeLocked takes c out of its room and notifies the remaining members.
// The caller holds c.mu.
func (r *Relay) removeLocked(c *Conn, username string) (string, int) {
	rm := r.rooms[c.roomID]
	rm.mu.Lock()
	delete(rm.members, c.id)
	count := len(rm.members)
	rm.broadcast(
		Event{Name: EventUserLeft, Data: username},
		Event{Name: EventUserCount, Data: count},
	)
	rm.mu.Unlock()

	roomID := c.roomID
	c.roomID = ""
	return roomID, count
}

// lockAll locks every room so a reader sees one consistent membership
// state across rooms.
func (r *Relay) lockAll() func() {
	all := make([]*room, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.rooms[id])
	}
	return lockRooms(all...)
}

// Rooms lists every seeded room, in seeded order, with its member count.
// A connection switching rooms is counted in exactly one of them.
func (r *Relay) Rooms() []domain.RoomSummary {
	unlock := r.lockAll()
	defer unlock()

	out := make([]domain.RoomSummary, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rooms[id].summary())
	}
	return out
}

// Stats returns connection and per-room counters.
func (r *Relay) Stats() Stats {
	r.mu.RLock()
	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	st := Stats{
		Connections: len(conns),
		Rooms:       make([]RoomStats, 0, len(r.order)),
	}
	for _, c := range conns {
		st.DroppedEvents += c.Dropped()
	}

	unlock := r.lockAll()
	defer unlock()
	for _, id := range r.order {
		rs := r.rooms[id].stats()
		st.Occupied += rs.Members
		st.Rooms = append(st.Rooms, rs)
	}
	return st
}

func (r *Relay) conn(connID string) (*Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}
	return c, nil
}
