package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/example/community-chat-relay/domain/chat"
	"github.com/example/community-chat-relay/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Service names exposed by the relay module.
const (
	ServiceListRooms = "list-rooms"
	ServiceStats     = "relay-stats"
)

// Module wraps the Relay as a mono module. It publishes membership and
// message events on the event bus and serves read-only snapshots to other
// modules.
type Module struct {
	relay    *Relay
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ Observer                   = (*Module)(nil)
)

// NewModule creates the relay module seeded with rooms.
func NewModule(rooms []domain.RoomConfig, logger types.Logger, opts ...Option) (*Module, error) {
	m := &Module{logger: logger}
	r, err := New(rooms, logger, append([]Option{WithObserver(m)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create relay: %w", err)
	}
	m.relay = r
	return m, nil
}

// Name returns the module name.
func (m *Module) Name() string {
	return "relay"
}

// Relay returns the relay instance driven by the transport.
func (m *Module) Relay() *Relay {
	return m.relay
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.UserJoinedV1.ToBase(),
		events.UserLeftV1.ToBase(),
		events.MessageSentV1.ToBase(),
	}
}

// RegisterServices registers the relay's request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListRooms, json.Unmarshal, json.Marshal, m.listRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceStats, json.Unmarshal, json.Marshal, m.stats,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceStats, err)
	}

	m.logger.Info("Registered relay services", "services", []string{ServiceListRooms, ServiceStats})
	return nil
}

// Start logs the seeded rooms. The relay itself needs no startup work.
func (m *Module) Start(_ context.Context) error {
	if m.eventBus == nil {
		m.logger.Warn("EventBus not set, relay events will not be published")
	}
	rooms := m.relay.Rooms()
	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	m.logger.Info("Relay module started", "rooms", ids)
	return nil
}

// Stop logs final counters. Connections are closed by the transport.
func (m *Module) Stop(_ context.Context) error {
	st := m.relay.Stats()
	m.logger.Info("Relay module stopped",
		"connections", st.Connections,
		"droppedEvents", st.DroppedEvents)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	st := m.relay.Stats()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connections":    st.Connections,
			"occupied":       st.Occupied,
			"dropped_events": st.DroppedEvents,
		},
	}
}

func (m *Module) listRooms(_ context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	return ListRoomsResponse{Rooms: m.relay.Rooms()}, nil
}

func (m *Module) stats(_ context.Context, _ StatsRequest, _ *mono.Msg) (StatsResponse, error) {
	return StatsResponse{Stats: m.relay.Stats()}, nil
}

// MemberJoined publishes a UserJoined event.
func (m *Module) MemberJoined(roomID, previousRoomID, connID, username string, members int) {
	if m.eventBus == nil {
		return
	}
	event := events.UserJoinedEvent{
		RoomID:       roomID,
		PreviousRoom: previousRoomID,
		ConnectionID: connID,
		Username:     username,
		Members:      members,
		Timestamp:    time.Now(),
	}
	if err := events.UserJoinedV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("Failed to publish UserJoined event", "roomID", roomID, "error", err)
	}
}

// MemberLeft publishes a UserLeft event.
func (m *Module) MemberLeft(roomID, connID, username string, members int, reason LeaveReason) {
	if m.eventBus == nil {
		return
	}
	event := events.UserLeftEvent{
		RoomID:       roomID,
		ConnectionID: connID,
		Username:     username,
		Members:      members,
		Reason:       string(reason),
		Timestamp:    time.Now(),
	}
	if err := events.UserLeftV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("Failed to publish UserLeft event", "roomID", roomID, "error", err)
	}
}

// MessageAccepted publishes a MessageSent event.
func (m *Module) MessageAccepted(roomID, connID string, msg domain.Message) {
	if m.eventBus == nil {
		return
	}
	event := events.MessageSentEvent{
		MessageID:    msg.ID,
		RoomID:       roomID,
		ConnectionID: connID,
		Username:     msg.Username,
		Length:       len(msg.Message),
		Timestamp:    msg.Timestamp,
	}
	if err := events.MessageSentV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("Failed to publish MessageSent event", "roomID", roomID, "error", err)
	}
}
