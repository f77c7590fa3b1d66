package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryCapacity bounds the in-process store when no capacity is configured.
const DefaultMemoryCapacity = 1024

// MemoryStore is a bounded in-process Store. Once full, the least recently used key is evicted.
type MemoryStore struct {
	entries *lru.Cache[string, Entry]
}

// NewMemoryStore constructs a MemoryStore holding at most capacity entries.
func NewMemoryStore(capacity int) (*MemoryStore, error) {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	entries, err := lru.New[string, Entry](capacity)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{entries: entries}, nil
}

// Get returns the entry for key and marks it as recently used.
func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	entry, ok := s.entries.Get(key)
	return entry, ok, nil
}

// Set stores entry under key, replacing any previous value.
func (s *MemoryStore) Set(_ context.Context, key string, entry Entry) error {
	s.entries.Add(key, entry)
	return nil
}

// Delete removes keys from the store.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.entries.Remove(key)
	}
	return nil
}

// PurgeBefore drops entries stored before cutoff without touching recency of the survivors.
func (s *MemoryStore) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for _, key := range s.entries.Keys() {
		entry, ok := s.entries.Peek(key)
		if ok && entry.StoredAt.Before(cutoff) {
			if s.entries.Remove(key) {
				removed++
			}
		}
	}
	return removed, nil
}

// Len reports the number of cached entries.
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}
