package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/farmiq/farmiq/internal/cache"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// memoryRateStore provides process-local rate limiting. It is concurrency-safe.
type memoryRateStore struct {
	mu        sync.Mutex
	data      map[string]*memoryCounter
	clock     clockwork.Clock
	lastSweep time.Time
}

type memoryCounter struct {
	count     int
	windowEnd time.Time
}

// NewMemoryRateStore constructs an in-memory rate store. Expired counters are swept lazily.
func NewMemoryRateStore(clock clockwork.Clock) RateStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &memoryRateStore{
		data:      make(map[string]*memoryCounter),
		clock:     clock,
		lastSweep: clock.Now(),
	}
}

func (s *memoryRateStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= window {
		for k, counter := range s.data {
			if !now.Before(counter.windowEnd) {
				delete(s.data, k)
			}
		}
		s.lastSweep = now
	}

	counter, ok := s.data[key]
	if !ok || !now.Before(counter.windowEnd) {
		counter = &memoryCounter{windowEnd: now.Add(window)}
		s.data[key] = counter
	}

	counter.count++

	return counter.count, counter.windowEnd.Sub(now), nil
}

// counterRateStore implements RateStore on top of a shared cache counter such as Redis.
type counterRateStore struct {
	counter cache.Counter
}

// NewCounterRateStore wraps a cache store that supports atomic counters. It returns nil when
// the store has no counter support so callers can fall back to NewMemoryRateStore.
func NewCounterRateStore(store cache.Store) RateStore {
	counter, ok := store.(cache.Counter)
	if !ok {
		return nil
	}
	return &counterRateStore{counter: counter}
}

func (s *counterRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}
	count, ttl, err := s.counter.IncrementWithTTL(ctx, "ratelimit:"+key, window)
	return int(count), ttl, err
}
