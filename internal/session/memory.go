package session

import (
	"context"
	"sync"
)

// MemoryStore keeps session values in process memory. Used by tests and by
// single-instance development setups.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string][]byte{}}
}

func (s *MemoryStore) storageKey(sessionID, key string) string {
	return sessionID + ":" + key
}

func (s *MemoryStore) Get(_ context.Context, sessionID string, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[s.storageKey(sessionID, key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

func (s *MemoryStore) Set(_ context.Context, sessionID string, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(value))
	copy(copied, value)
	s.values[s.storageKey(sessionID, key)] = copied
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, s.storageKey(sessionID, key))
	return nil
}
