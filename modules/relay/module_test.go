package relay

import (
	"context"
	"testing"

	"github.com/example/community-chat-relay/config"
	domain "github.com/example/community-chat-relay/domain/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModule(t *testing.T) {
	m, err := NewModule(config.DefaultRooms(), newMockLogger())
	require.NoError(t, err)

	assert.Equal(t, "relay", m.Name())
	assert.NotNil(t, m.Relay())
	assert.Len(t, m.EmitEvents(), 3)
}

func TestNewModule_InvalidRooms(t *testing.T) {
	_, err := NewModule([]domain.RoomConfig{}, newMockLogger())
	assert.ErrorIs(t, err, ErrNoRooms)
}

func TestModule_ServicesWithoutEventBus(t *testing.T) {
	ctx := context.Background()
	m, err := NewModule(config.DefaultRooms(), newMockLogger())
	require.NoError(t, err)
	require.NoError(t, m.Start(ctx))

	// Observer callbacks are no-ops until the framework sets a bus.
	r := m.Relay()
	_, err = r.Connect("alice")
	require.NoError(t, err)
	require.NoError(t, r.Join("alice", "general", "alice"))
	_, err = r.Send("alice", "general", "alice", "hi")
	require.NoError(t, err)
	r.Disconnect("alice")

	rooms, err := m.listRooms(ctx, ListRoomsRequest{}, nil)
	require.NoError(t, err)
	require.Len(t, rooms.Rooms, 6)
	assert.Zero(t, rooms.Rooms[0].UserCount)

	stats, err := m.stats(ctx, StatsRequest{}, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Stats.Connections)
	assert.Equal(t, 1, stats.Stats.Rooms[0].Messages)

	health := m.Health(ctx)
	assert.True(t, health.Healthy)
	assert.Equal(t, 0, health.Details["connections"])

	require.NoError(t, m.Stop(ctx))
}

func TestNewRelayAdapter_NilContainer(t *testing.T) {
	assert.Panics(t, func() {
		NewRelayAdapter(nil)
	})
}
