package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/community-chat-relay/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// ServiceRoomActivity is the request-reply service returning room counters.
const ServiceRoomActivity = "room-activity"

// Module is an EventConsumerModule that keeps per-room activity counters
// from relay events.
type Module struct {
	tracker *Tracker
	logger  types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new activity Module.
func NewModule(logger types.Logger) *Module {
	return &Module{
		tracker: NewTracker(),
		logger:  logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "activity"
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Activity module started")
	return nil
}

// Stop logs the totals collected during the run.
func (m *Module) Stop(_ context.Context) error {
	joins, messages := m.tracker.Totals()
	m.logger.Info("Activity module stopped", "joins", joins, "messages", messages)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	joins, messages := m.tracker.Totals()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"joins":    joins,
			"messages": messages,
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserJoinedV1, m.handleUserJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register UserJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserLeftV1, m.handleUserLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register UserLeft consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageSentV1, m.handleMessageSent, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", []string{"UserJoined", "UserLeft", "MessageSent"})
	return nil
}

// RegisterServices registers the room-activity service.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRoomActivity, json.Unmarshal, json.Marshal, m.roomActivity,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRoomActivity, err)
	}
	return nil
}

// Tracker returns the counters kept by this module.
func (m *Module) Tracker() *Tracker {
	return m.tracker
}

// Event handlers

func (m *Module) handleUserJoined(_ context.Context, event events.UserJoinedEvent, _ *mono.Msg) error {
	m.tracker.RecordJoin(event.RoomID, event.Timestamp)
	m.logger.Debug("Recorded join", "roomID", event.RoomID, "members", event.Members)
	return nil
}

func (m *Module) handleUserLeft(_ context.Context, event events.UserLeftEvent, _ *mono.Msg) error {
	m.tracker.RecordLeave(event.RoomID, event.Reason == "disconnect", event.Timestamp)
	m.logger.Debug("Recorded leave", "roomID", event.RoomID, "reason", event.Reason)
	return nil
}

func (m *Module) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	m.tracker.RecordMessage(event.RoomID, event.Timestamp)
	return nil
}

func (m *Module) roomActivity(_ context.Context, _ RoomActivityRequest, _ *mono.Msg) (RoomActivityResponse, error) {
	return RoomActivityResponse{Rooms: m.tracker.Snapshot()}, nil
}
