package kvstore

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore provides an in-memory implementation useful for testing and as
// the session fallback when durable storage is unavailable.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string]Blob
}

// NewMemoryStore constructs an empty memory-backed store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]Blob)}
}

// Get implements the Store interface.
func (s *MemoryStore) Get(_ context.Context, key string) (Blob, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Blob{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok := s.blobs[key]
	if !ok {
		return Blob{}, false
	}
	dup := blob
	dup.Data = append([]byte(nil), blob.Data...)
	return dup, true
}

// Set implements the Store interface. The last write for a key wins.
func (s *MemoryStore) Set(_ context.Context, key string, blob Blob) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := blob
	stored.Data = append([]byte(nil), blob.Data...)
	s.blobs[key] = stored
	return true
}

// Delete implements the Store interface.
func (s *MemoryStore) Delete(_ context.Context, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, key)
	return true
}

// Len reports the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
