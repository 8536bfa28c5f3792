package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playdex/playdex-chat/internal/app/session"
	"github.com/playdex/playdex-chat/internal/domain"
)

func TestTryAcquireDropsSecondTurn(t *testing.T) {
	c := session.NewCoordinator()

	require.True(t, c.TryAcquire("room-a"))
	require.True(t, c.IsBusy())
	active, ok := c.ActiveRoomID()
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("room-a"), active)

	// The slot is held: a second turn must be refused, not parked.
	assert.False(t, c.TryAcquire("room-b"))
	active, _ = c.ActiveRoomID()
	assert.Equal(t, domain.RoomID("room-a"), active, "failed acquire must not disturb the holder")

	c.Release()
	assert.False(t, c.IsBusy())
	_, ok = c.ActiveRoomID()
	assert.False(t, ok)

	// The slot must be reusable after release.
	require.True(t, c.TryAcquire("room-b"))
	c.Release()
}

func TestReleaseAfterEveryOutcome(t *testing.T) {
	c := session.NewCoordinator()

	// Acquire/release cycles must not leak the slot.
	for i := 0; i < 3; i++ {
		require.True(t, c.TryAcquire("room-a"))
		c.Release()
	}
	assert.False(t, c.IsBusy())
}

func TestRedirectActiveRoom(t *testing.T) {
	c := session.NewCoordinator()

	require.True(t, c.TryAcquire("room-a"))
	defer c.Release()

	// Redirect with a non-matching source is a no-op.
	assert.False(t, c.RedirectActiveRoom("room-x", "room-y"))
	active, _ := c.ActiveRoomID()
	assert.Equal(t, domain.RoomID("room-a"), active)

	require.True(t, c.RedirectActiveRoom("room-a", "room-b"))
	active, ok := c.ActiveRoomID()
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("room-b"), active)
}

func TestRedirectWhenIdleIsNoop(t *testing.T) {
	c := session.NewCoordinator()
	assert.False(t, c.RedirectActiveRoom("room-a", "room-b"))
}
