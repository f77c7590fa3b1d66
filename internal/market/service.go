package market

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/farmiq/farmiq/internal/cache"
	"github.com/farmiq/farmiq/pkg/metrics"
)

// DefaultCacheTTL is how long a cached response is served before it is refreshed.
const DefaultCacheTTL = 300 * time.Second

// Result is a market price response together with its cache provenance.
type Result struct {
	Response Response
	Hit      bool
}

// Service serves market prices from the cache, falling back to the upstream API.
// Concurrent misses for one key are not coalesced; the last write wins.
type Service struct {
	store    cache.Store
	fetcher  Fetcher
	ttl      time.Duration
	maxLimit int
	clock    clockwork.Clock
	log      *zap.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithTTL overrides the cache freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMaxLimit overrides the largest page size forwarded upstream.
func WithMaxLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxLimit = limit
		}
	}
}

// WithClock sets the clock used for entry freshness.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService wires a store and fetcher into a Service.
func NewService(store cache.Store, fetcher Fetcher, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("market: cache store is required")
	}
	if fetcher == nil {
		return nil, errors.New("market: fetcher is required")
	}

	svc := &Service{
		store:    store,
		fetcher:  fetcher,
		ttl:      DefaultCacheTTL,
		maxLimit: DefaultMaxLimit,
		clock:    clockwork.NewRealClock(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// MaxLimit reports the configured page size cap.
func (s *Service) MaxLimit() int {
	return s.maxLimit
}

// Prices returns the response for q. Store errors never fail the request: a failed read is
// treated as a miss and a failed write is logged.
func (s *Service) Prices(ctx context.Context, q Query) (Result, error) {
	key := q.CacheKey()

	if resp, ok := s.lookup(ctx, key); ok {
		metrics.MarketCacheRequests.WithLabelValues("hit").Inc()
		s.log.Info("market cache hit", zap.String("key", key))
		return Result{Response: resp, Hit: true}, nil
	}
	metrics.MarketCacheRequests.WithLabelValues("miss").Inc()

	body, err := s.fetcher.Fetch(ctx, q)
	if err != nil {
		s.log.Warn("upstream market fetch failed", zap.String("key", key), zap.Error(err))
		return Result{}, err
	}

	resp := buildResponse(q, body)
	s.save(ctx, key, resp)
	s.log.Info("market cache miss, cached", zap.String("key", key), zap.Int("count", resp.Meta.Count))

	return Result{Response: resp}, nil
}

func (s *Service) lookup(ctx context.Context, key string) (Response, bool) {
	entry, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.log.Warn("market cache read failed", zap.String("key", key), zap.Error(err))
		return Response{}, false
	}
	if !ok || entry.Age(s.clock.Now()) >= s.ttl {
		return Response{}, false
	}

	var resp Response
	if err := json.Unmarshal(entry.Value, &resp); err != nil {
		s.log.Warn("market cache entry corrupt", zap.String("key", key), zap.Error(err))
		return Response{}, false
	}
	return resp, true
}

func (s *Service) save(ctx context.Context, key string, resp Response) {
	value, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("encode market response", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, key, cache.Entry{Value: value, StoredAt: s.clock.Now()}); err != nil {
		s.log.Warn("market cache write failed", zap.String("key", key), zap.Error(err))
	}
}
