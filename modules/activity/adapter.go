package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// RoomActivityRequest is the request for the room-activity service.
type RoomActivityRequest struct{}

// RoomActivityResponse is the response of the room-activity service.
type RoomActivityResponse struct {
	Rooms []RoomActivity `json:"rooms"`
}

// ActivityPort defines the activity operations available to other modules.
type ActivityPort interface {
	RoomActivity(ctx context.Context) ([]RoomActivity, error)
}

type activityAdapter struct {
	container mono.ServiceContainer
}

// NewActivityAdapter creates an ActivityPort backed by the activity module's
// services.
func NewActivityAdapter(container mono.ServiceContainer) ActivityPort {
	if container == nil {
		panic("activity: ServiceContainer is nil")
	}
	return &activityAdapter{container: container}
}

// RoomActivity returns the counters of every room seen so far.
func (a *activityAdapter) RoomActivity(ctx context.Context) ([]RoomActivity, error) {
	req := RoomActivityRequest{}
	var resp RoomActivityResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRoomActivity,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get room activity: %w", err)
	}
	return resp.Rooms, nil
}
