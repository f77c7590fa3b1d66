package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig captures the connection parameters for the Redis cache tier.
type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	TLS      bool
	Timeout  time.Duration
}

const (
	defaultRedisTimeout = 5 * time.Second
	redisKeyPrefix      = "farmiq:"
	redisScanCount      = 200
)

// RedisStore implements Store on top of go-redis. Entries expire server-side after the
// configured retention so stale keys never accumulate.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRetention sets the server-side expiry applied to every entry. Zero disables expiry.
func WithRetention(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d >= 0 {
			s.retention = d
		}
	}
}

// WithKeyPrefix namespaces stored keys, e.g. "farmiq:market:".
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore dials Redis and verifies the connection so misconfiguration surfaces at startup.
func NewRedisStore(ctx context.Context, cfg RedisConfig, opts ...RedisOption) (*RedisStore, error) {
	cfg.Address = strings.TrimSpace(cfg.Address)
	if cfg.Address == "" {
		return nil, errors.New("redis: address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRedisTimeout
	}

	options := &redis.Options{
		Addr:         cfg.Address,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	}
	if cfg.TLS {
		options.TLSConfig = tlsConfigFor(cfg.Address)
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to connect to %s: %w", cfg.Address, err)
	}

	return NewRedisStoreWithClient(client, opts...), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	store := &RedisStore{client: client, prefix: redisKeyPrefix}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

type redisEntry struct {
	StoredAt time.Time `json:"stored_at"`
	Value    []byte    `json:"value"`
}

// Get retrieves a value by key. A missing key (redis.Nil) is a miss, not an error.
func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	data, err := s.client.Get(ctx, s.prefixed(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("redis: get %s: %w", key, err)
	}

	entry, err := decodeRedisEntry(data)
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis: decode %s: %w", key, err)
	}
	return entry, true, nil
}

// Set stores entry under key with the configured retention.
func (s *RedisStore) Set(ctx context.Context, key string, entry Entry) error {
	data, err := encodeRedisEntry(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefixed(key), data, s.retention).Err()
}

// Delete removes keys from the store.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = s.prefixed(key)
	}
	return s.client.Del(ctx, prefixed...).Err()
}

// PurgeBefore scans the namespace and removes entries stored before cutoff.
func (s *RedisStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var (
		removed int64
		cursor  uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", redisScanCount).Result()
		if err != nil {
			return removed, fmt.Errorf("redis: scan: %w", err)
		}
		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return removed, fmt.Errorf("redis: get %s: %w", key, err)
			}
			entry, err := decodeRedisEntry(data)
			if err != nil || entry.StoredAt.Before(cutoff) {
				n, err := s.client.Del(ctx, key).Result()
				if err != nil {
					return removed, fmt.Errorf("redis: del %s: %w", key, err)
				}
				removed += n
			}
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

// IncrementWithTTL increments a fixed-window counter, starting its expiry on first use.
func (s *RedisStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}
	prefixed := s.prefixed(key)

	count, err := s.client.Incr(ctx, prefixed).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis: incr %s: %w", key, err)
	}
	if count == 1 {
		if err := s.client.PExpire(ctx, prefixed, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("redis: pexpire %s: %w", key, err)
		}
		return count, window, nil
	}

	ttl, err := s.client.PTTL(ctx, prefixed).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis: pttl %s: %w", key, err)
	}
	if ttl < 0 {
		// counter lost its expiry; reset the window
		if err := s.client.PExpire(ctx, prefixed, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("redis: pexpire %s: %w", key, err)
		}
		ttl = window
	}
	return count, ttl, nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) prefixed(key string) string {
	return s.prefix + key
}

func encodeRedisEntry(entry Entry) ([]byte, error) {
	data, err := json.Marshal(redisEntry{StoredAt: entry.StoredAt.UTC(), Value: entry.Value})
	if err != nil {
		return nil, fmt.Errorf("redis: encode entry: %w", err)
	}
	return data, nil
}

func decodeRedisEntry(data []byte) (Entry, error) {
	var raw redisEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return Entry{}, err
	}
	return Entry{Value: raw.Value, StoredAt: raw.StoredAt}, nil
}
