package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/farmiq/farmiq/internal/cache"
	"github.com/farmiq/farmiq/internal/monitoring"
	"github.com/farmiq/farmiq/pkg/logger"
	"github.com/farmiq/farmiq/pkg/metrics"
)

const (
	// JobCachePurge names the stale cache purge job.
	JobCachePurge = "cache_purge"

	defaultPurgeSpec      = "@every 15m"
	defaultCacheRetention = time.Hour
)

// Cleaner runs background maintenance on a cron schedule. Today that is purging market
// cache entries older than the retention window.
type Cleaner struct {
	store     cache.Store
	tracker   *monitoring.JobTracker
	cron      *cron.Cron
	clock     clockwork.Clock
	log       *zap.Logger
	retention time.Duration
	schedule  string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithClock overrides the clock used for cutoff calculations.
func WithClock(clock clockwork.Clock) Option {
	return func(cleaner *Cleaner) {
		if clock != nil {
			cleaner.clock = clock
		}
	}
}

// WithRetention sets how long cache entries are kept before they are purged.
func WithRetention(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.retention = d
		}
	}
}

// WithSchedule overrides the cron specification for the purge job.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// WithTracker records job outcomes for the maintenance readiness probe.
func WithTracker(tracker *monitoring.JobTracker) Option {
	return func(cleaner *Cleaner) {
		cleaner.tracker = tracker
	}
}

// NewCleaner constructs a Cleaner. A nil store disables every job.
func NewCleaner(store cache.Store, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		store:     store,
		clock:     clockwork.NewRealClock(),
		retention: defaultCacheRetention,
		schedule:  defaultPurgeSpec,
		log:       logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	if cleaner.tracker != nil && cleaner.store != nil {
		cleaner.tracker.Register(JobCachePurge)
	}

	return cleaner
}

// Start registers the jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.store == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if _, err := c.PurgeCache(context.Background()); err != nil {
			c.log.Warn("cache purge failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	c.log.Info("maintenance scheduler started",
		zap.String("schedule", c.schedule),
		zap.Duration("retention", c.retention),
	)
	return nil
}

// Stop halts the underlying scheduler. The returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every job immediately. Used in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.store != nil {
		if _, err := c.PurgeCache(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// PurgeCache removes cache entries stored before now minus the retention window.
func (c *Cleaner) PurgeCache(ctx context.Context) (int64, error) {
	if c.store == nil {
		return 0, errors.New("cache purge: store is required")
	}

	start := c.clock.Now()
	cutoff := start.Add(-c.retention)
	removed, err := c.store.PurgeBefore(ctx, cutoff)
	if c.tracker != nil {
		c.tracker.Record(JobCachePurge, err, c.clock.Since(start))
	}
	if err != nil {
		return removed, err
	}

	metrics.CacheEntriesPurged.Add(float64(removed))
	if removed > 0 {
		c.log.Info("purged stale cache entries", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
	}
	return removed, nil
}
