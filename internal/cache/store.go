package cache

import (
	"context"
	"time"
)

// Entry is a cached payload together with the moment it was stored. Freshness is decided by
// the caller from StoredAt so that stores stay policy-free.
type Entry struct {
	Value    []byte
	StoredAt time.Time
}

// Age reports how long ago the entry was stored relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Store represents a shared cache interface used across the application.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, keys ...string) error
	// PurgeBefore removes entries stored before cutoff and reports how many were removed.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Counter is implemented by stores that can back fixed-window rate limiting.
type Counter interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Pinger is implemented by stores whose backing service can be probed for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
