package storage

import (
	"context"
	"errors"

	"github.com/coocood/freecache"
)

var _ KV = (*MemoryStore)(nil)

// MemoryStore keeps the data in process memory. Nothing survives a restart,
// so it is meant for development and tests.
// A single value can be at most 1/1024 of the cache size.
type MemoryStore struct {
	cache *freecache.Cache
}

func NewMemoryStore(cacheSizeBytes int) *MemoryStore {
	return &MemoryStore{
		cache: freecache.NewCache(cacheSizeBytes),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	val, err := s.cache.Get([]byte(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	return s.cache.Set([]byte(key), value, 0)
}

func (s *MemoryStore) Del(_ context.Context, key string) error {
	s.cache.Del([]byte(key))
	return nil
}
