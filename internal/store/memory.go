package store

import (
	"context"
	"sync"

	"github.com/rajaravivarma-r/darkwire.io/internal/domain"
)

// MemoryStore holds records in-process, for dev and tests. Records are kept
// serialized so reads hand out independent copies, exactly like the external
// backends do.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, roomID string) (*domain.Room, error) {
	s.mu.RLock()
	b, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return decodeRecord(b)
}

func (s *MemoryStore) Set(_ context.Context, room *domain.Room) error {
	b, err := encodeRecord(room)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.rooms[room.ID] = b
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, roomID string) error {
	s.mu.Lock()
	delete(s.rooms, roomID)
	s.mu.Unlock()
	return nil
}
