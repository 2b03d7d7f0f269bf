package store

import (
	"context"
	"encoding/json"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps blobs in process memory. Default for development and
// tests; data does not survive a restart.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	// Blobs never expire on their own; the UI owns their lifecycle.
	return &MemoryStore{cache: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	if x, found := s.cache.Get(key); found {
		return x.(json.RawMessage), true, nil
	}
	return nil, false, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, blob json.RawMessage) error {
	// Copy so callers can reuse their buffer.
	stored := make(json.RawMessage, len(blob))
	copy(stored, blob)
	s.cache.Set(key, stored, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
