package memory

import (
	"context"
	"sync"
	"time"

	"github.com/playdex/playdex-chat/internal/domain"
)

// RoomStore keeps the registry in memory. Dev/test backend; bodies are not
// encrypted here, the sqlite and firestore backends own that concern.
type RoomStore struct {
	mu    sync.RWMutex
	rooms []*domain.Room
	now   func() time.Time
}

func NewRoomStore() *RoomStore {
	return &RoomStore{now: time.Now}
}

func (s *RoomStore) LoadRooms(ctx context.Context) ([]*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms = domain.NormalizeRooms(s.rooms, s.now())

	out := make([]*domain.Room, len(s.rooms))
	for i, r := range s.rooms {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}

func (s *RoomStore) SaveRooms(ctx context.Context, rooms []*domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms = domain.NormalizeRooms(rooms, s.now())
	s.rooms = make([]*domain.Room, len(rooms))
	for i, r := range rooms {
		cp := *r
		s.rooms[i] = &cp
	}
	return nil
}

func (s *RoomStore) TouchRoomUpdatedAt(ctx context.Context, id domain.RoomID, at domain.Timestamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rooms {
		if r.ID == id {
			r.UpdatedAt = at
			break
		}
	}
	return nil
}
