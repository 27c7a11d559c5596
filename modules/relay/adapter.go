package relay

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/community-chat-relay/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ListRoomsRequest is the request for the list-rooms service.
type ListRoomsRequest struct{}

// ListRoomsResponse is the response of the list-rooms service.
type ListRoomsResponse struct {
	Rooms []domain.RoomSummary `json:"rooms"`
}

// StatsRequest is the request for the relay-stats service.
type StatsRequest struct{}

// StatsResponse is the response of the relay-stats service.
type StatsResponse struct {
	Stats Stats `json:"stats"`
}

// RelayPort defines the read-only relay operations available to other modules.
type RelayPort interface {
	ListRooms(ctx context.Context) ([]domain.RoomSummary, error)
	Stats(ctx context.Context) (Stats, error)
}

// relayAdapter implements RelayPort using the service container.
type relayAdapter struct {
	container mono.ServiceContainer
}

// NewRelayAdapter creates a RelayPort backed by the relay module's services.
func NewRelayAdapter(container mono.ServiceContainer) RelayPort {
	if container == nil {
		panic("relay: ServiceContainer is nil")
	}
	return &relayAdapter{container: container}
}

// ListRooms returns the seeded rooms with their member counts.
func (a *relayAdapter) ListRooms(ctx context.Context) ([]domain.RoomSummary, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return resp.Rooms, nil
}

// Stats returns the relay counters.
func (a *relayAdapter) Stats(ctx context.Context) (Stats, error) {
	req := StatsRequest{}
	var resp StatsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceStats,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return Stats{}, fmt.Errorf("failed to get relay stats: %w", err)
	}
	return resp.Stats, nil
}
