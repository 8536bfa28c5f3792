package turn

import (
	"sync"

	"github.com/playdex/playdex-chat/internal/domain"
)

// redirectTable retargets where a turn's artifacts land after its owning
// room is archived mid-flight. Consulted at write time only; entries are
// cleared when the turn that launched against the source room finishes.
type redirectTable struct {
	mu sync.Mutex
	m  map[domain.RoomID]domain.RoomID
}

func newRedirectTable() *redirectTable {
	return &redirectTable{m: make(map[domain.RoomID]domain.RoomID)}
}

func (t *redirectTable) Register(from, to domain.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[from] = to
}

// Resolve returns the current target for roomID, or roomID itself.
func (t *redirectTable) Resolve(roomID domain.RoomID) domain.RoomID {
	t.mu.Lock()
	defer t.mu.Unlock()
	if to, ok := t.m[roomID]; ok {
		return to
	}
	return roomID
}

func (t *redirectTable) Clear(from domain.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, from)
}
