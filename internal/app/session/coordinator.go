// Package session serializes remote turns: at most one turn is in flight
// across the whole process, and a turn arriving while the slot is held is
// dropped, never queued.
package session

import (
	"sync"

	"github.com/playdex/playdex-chat/internal/domain"
)

// Coordinator is a single-slot gate. TryAcquire takes the slot without
// waiting, so the busy check and the acquisition are one atomic step.
type Coordinator struct {
	slot chan struct{} // capacity 1

	mu         sync.Mutex
	active     bool
	activeRoom domain.RoomID
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		slot: make(chan struct{}, 1),
	}
}

// TryAcquire takes the slot for a turn owned by roomID. It never blocks:
// false means another turn holds the slot and the caller must drop.
// Callers that acquire must Release on every exit path.
func (c *Coordinator) TryAcquire(roomID domain.RoomID) bool {
	select {
	case c.slot <- struct{}{}:
	default:
		return false
	}

	c.mu.Lock()
	c.active = true
	c.activeRoom = roomID
	c.mu.Unlock()
	return true
}

// Release frees the slot taken by TryAcquire.
func (c *Coordinator) Release() {
	c.mu.Lock()
	c.active = false
	c.activeRoom = ""
	c.mu.Unlock()
	<-c.slot
}

// IsBusy reports whether a turn currently holds the slot.
func (c *Coordinator) IsBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// ActiveRoomID returns the room owning the in-flight turn, ok=false when idle.
func (c *Coordinator) ActiveRoomID() (domain.RoomID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeRoom, c.active
}

// RedirectActiveRoom atomically retargets the active room from -> to, so
// "is this room busy" checks keep tracking the right room after an archive.
// No-op unless the in-flight turn currently belongs to from.
func (c *Coordinator) RedirectActiveRoom(from, to domain.RoomID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || c.activeRoom != from {
		return false
	}
	c.activeRoom = to
	return true
}
