package chathub_test

import (
	"testing"

	"lawchat/backend/internal/chathub"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistryWith(t *testing.T, ids ...string) *chathub.Registry {
	t.Helper()
	r := chathub.NewRegistry()
	for _, id := range ids {
		_, err := r.Register(id)
		require.NoError(t, err)
	}
	return r
}

func TestRoomManager_JoinIsIdempotent(t *testing.T) {
	registry := newRegistryWith(t, "c1")
	rm := chathub.NewRoomManager(registry)

	require.NoError(t, rm.Join("session-1", "c1"))
	require.NoError(t, rm.Join("session-1", "c1"))

	assert.Equal(t, []string{"c1"}, rm.Members("session-1"))
}

func TestRoomManager_JoinRequiresRegistration(t *testing.T) {
	registry := newRegistryWith(t)
	rm := chathub.NewRoomManager(registry)

	err := rm.Join("session-1", "ghost")
	assert.ErrorIs(t, err, chathub.ErrConnectionNotFound)
	assert.Empty(t, rm.Members("session-1"))
}

func TestRoomManager_LeaveReclaimsEmptyRoom(t *testing.T) {
	registry := newRegistryWith(t, "c1", "c2")
	rm := chathub.NewRoomManager(registry)
	require.NoError(t, rm.Join("session-1", "c1"))
	require.NoError(t, rm.Join("session-1", "c2"))

	rm.Leave("session-1", "c1")
	assert.Equal(t, []string{"c2"}, rm.Members("session-1"))

	rm.Leave("session-1", "c2")
	rm.Leave("session-1", "c2") // idempotent
	assert.Empty(t, rm.Members("session-1"))
	assert.Empty(t, rm.RoomsOf("c2"))
}

func TestRoomManager_LeaveAll(t *testing.T) {
	registry := newRegistryWith(t, "c1", "c2")
	rm := chathub.NewRoomManager(registry)
	require.NoError(t, rm.Join("session-1", "c1"))
	require.NoError(t, rm.Join("session-2", "c1"))
	require.NoError(t, rm.Join(chathub.AdminRoom, "c1"))
	require.NoError(t, rm.Join("session-1", "c2"))

	rm.LeaveAll("c1")

	assert.Empty(t, rm.RoomsOf("c1"))
	assert.Equal(t, []string{"c2"}, rm.Members("session-1"))
	assert.Empty(t, rm.Members(chathub.AdminRoom))
}

func TestRoomManager_MembersDropsStaleIDs(t *testing.T) {
	registry := newRegistryWith(t, "c1", "c2")
	rm := chathub.NewRoomManager(registry)
	require.NoError(t, rm.Join("session-1", "c1"))
	require.NoError(t, rm.Join("session-1", "c2"))

	// Simulate a deregistration the room manager was not told about.
	_, err := registry.Deregister("c1")
	require.NoError(t, err)

	assert.Equal(t, []string{"c2"}, rm.Members("session-1"))
	assert.False(t, rm.Contains("session-1", "c1"))
}

func TestRoomManager_BroadcastSkipsExcludedAndCounts(t *testing.T) {
	registry := newRegistryWith(t, "c1", "c2", "c3")
	rm := chathub.NewRoomManager(registry)
	for _, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, rm.Join("session-1", id))
	}

	var reached []string
	delivered := rm.Broadcast("session-1", "c1", func(connID string) bool {
		reached = append(reached, connID)
		return true
	})

	assert.Equal(t, 2, delivered)
	assert.ElementsMatch(t, []string{"c2", "c3"}, reached)
}

func TestRoomManager_BroadcastIsolatesFailures(t *testing.T) {
	registry := newRegistryWith(t, "c1", "c2", "c3")
	rm := chathub.NewRoomManager(registry)
	for _, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, rm.Join("session-1", id))
	}

	delivered := rm.Broadcast("session-1", "", func(connID string) bool {
		return connID != "c2" // c2's transport is gone
	})

	assert.Equal(t, 2, delivered)
	// The failed member is removed from the room, not kept as a zombie.
	assert.False(t, rm.Contains("session-1", "c2"))
	assert.True(t, rm.Contains("session-1", "c1"))
	assert.True(t, rm.Contains("session-1", "c3"))
}

func TestRoomManager_BroadcastEmptyRoomIsZero(t *testing.T) {
	registry := newRegistryWith(t)
	rm := chathub.NewRoomManager(registry)

	delivered := rm.Broadcast(chathub.AdminRoom, "", func(string) bool { return true })
	assert.Equal(t, 0, delivered)
}
