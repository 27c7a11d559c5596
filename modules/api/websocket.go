package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/example/community-chat-relay/modules/relay"
	"github.com/gofiber/contrib/websocket"
	"golang.org/x/time/rate"
)

// Transport limits. Username and message limits count characters.
const (
	MaxUsernameLength = 20
	MaxMessageLength  = 500

	maxFrameSize = 16 << 10
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
)

// Rate limiting constants
const (
	messagesPerSecond = 10
	burstSize         = 20
)

// Reasons sent to clients for transport-level rejections.
const (
	reasonInvalidFormat  = "Invalid message format"
	reasonInvalidPayload = "Invalid %s payload"
	reasonRateLimited    = "Rate limit exceeded, please slow down"
	reasonUnknownEvent   = "Unknown event: %s"
)

var (
	reasonUsernameTooLong = fmt.Sprintf("Username must be at most %d characters", MaxUsernameLength)
	reasonMessageTooLong  = fmt.Sprintf("Message must be at most %d characters", MaxMessageLength)
)

// session is the transport state of one WebSocket connection.
type session struct {
	ws      *websocket.Conn
	conn    *relay.Conn
	limiter *rate.Limiter
}

// handleWebSocket handles WebSocket connections at /ws.
func (m *Module) handleWebSocket(ws *websocket.Conn) {
	connID := m.newConnID()
	conn, err := m.relay.Connect(connID)
	if err != nil {
		m.logger.Error("Failed to register connection", "connID", connID, "error", err)
		return
	}
	m.sockets.Store(connID, ws)

	s := &session{
		ws:      ws,
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(messagesPerSecond), burstSize),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.writePump(s)
	}()

	m.readPump(s)

	m.sockets.Delete(connID)
	m.relay.Disconnect(connID)
	<-done
}

// readPump feeds client events to the relay in the order they arrive.
func (m *Module) readPump(s *session) {
	s.ws.SetReadLimit(maxFrameSize)
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		return s.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Warn("WebSocket read error", "connID", s.conn.ID(), "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			m.reject(s, reasonInvalidFormat)
			continue
		}
		m.dispatch(s, env)
	}
}

// writePump writes queued relay events to the socket. It is the only
// goroutine writing to the socket.
func (m *Module) writePump(s *session) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-s.conn.Events():
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.ws.WriteJSON(ev); err != nil {
				m.logger.Debug("WebSocket write failed", "connID", s.conn.ID(), "error", err)
				// Unblock the reader; Disconnect then closes the outbox.
				_ = s.ws.Close()
				drainEvents(s.conn)
				return
			}
		case <-ticker.C:
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = s.ws.Close()
				drainEvents(s.conn)
				return
			}
		}
	}
}

// drainEvents discards queued events until the outbox is closed.
func drainEvents(c *relay.Conn) {
	for range c.Events() {
	}
}

func (m *Module) dispatch(s *session, env Envelope) {
	switch env.Event {
	case EventJoinRoom:
		m.handleJoin(s, env.Data)
	case EventSendMessage:
		m.handleSend(s, env.Data)
	case EventLeaveRoom:
		m.handleLeave(s, env.Data)
	default:
		m.reject(s, fmt.Sprintf(reasonUnknownEvent, env.Event))
	}
}

func (m *Module) handleJoin(s *session, data json.RawMessage) {
	var p JoinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		m.reject(s, fmt.Sprintf(reasonInvalidPayload, EventJoinRoom))
		return
	}
	if utf8.RuneCountInString(p.Username) > MaxUsernameLength {
		m.reject(s, reasonUsernameTooLong)
		return
	}
	// Rejections are reported to the client by the relay.
	if err := m.relay.Join(s.conn.ID(), p.RoomID, p.Username); err != nil {
		m.logger.Debug("Join rejected", "connID", s.conn.ID(), "roomID", p.RoomID, "error", err)
	}
}

func (m *Module) handleSend(s *session, data json.RawMessage) {
	if !s.limiter.Allow() {
		m.reject(s, reasonRateLimited)
		return
	}

	var p SendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		m.reject(s, fmt.Sprintf(reasonInvalidPayload, EventSendMessage))
		return
	}
	if utf8.RuneCountInString(p.Username) > MaxUsernameLength {
		m.reject(s, reasonUsernameTooLong)
		return
	}
	if utf8.RuneCountInString(p.Message) > MaxMessageLength {
		m.reject(s, reasonMessageTooLong)
		return
	}
	if _, err := m.relay.Send(s.conn.ID(), p.RoomID, p.Username, p.Message); err != nil {
		m.logger.Debug("Send rejected", "connID", s.conn.ID(), "roomID", p.RoomID, "error", err)
	}
}

func (m *Module) handleLeave(s *session, data json.RawMessage) {
	var p LeaveRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		m.reject(s, fmt.Sprintf(reasonInvalidPayload, EventLeaveRoom))
		return
	}
	err := m.relay.Leave(s.conn.ID(), p.Username)
	if err != nil && !errors.Is(err, relay.ErrNotAMember) {
		m.logger.Debug("Leave failed", "connID", s.conn.ID(), "error", err)
	}
}

// reject sends an error event to this connection only.
func (m *Module) reject(s *session, reason string) {
	s.conn.Push(relay.Event{Name: relay.EventError, Data: reason})
}
