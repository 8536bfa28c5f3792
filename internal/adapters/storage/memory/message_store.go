package memory

import (
	"context"
	"sync"

	"github.com/playdex/playdex-chat/internal/domain"
)

type MessageStore struct {
	mu       sync.RWMutex
	messages map[domain.RoomID][]*domain.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[domain.RoomID][]*domain.Message),
	}
}

func (s *MessageStore) LoadMessages(ctx context.Context, roomID domain.RoomID) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[roomID]
	out := make([]*domain.Message, len(msgs))
	for i, m := range msgs {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}

func (s *MessageStore) SaveMessages(ctx context.Context, msgs []*domain.Message, roomID domain.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]*domain.Message, len(msgs))
	for i, m := range msgs {
		cp := *m
		cp.RoomID = roomID
		cp.Seq = i
		stored[i] = &cp
	}
	s.messages[roomID] = stored
	return nil
}
