package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"

	"github.com/farmiq/farmiq/internal/cache"
	"github.com/farmiq/farmiq/internal/monitoring"
)

type brokenStore struct {
	cache.Store
}

func (brokenStore) PurgeBefore(context.Context, time.Time) (int64, error) {
	return 0, errors.New("store offline")
}

func TestPurgeCacheRemovesStaleEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	store, err := cache.NewMemoryStore(8)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "old", cache.Entry{Value: []byte("{}"), StoredAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, store.Set(ctx, "new", cache.Entry{Value: []byte("{}"), StoredAt: now.Add(-time.Minute)}))

	tracker := monitoring.NewJobTracker(clock)
	cleaner := NewCleaner(store, WithClock(clock), WithRetention(time.Hour), WithTracker(tracker))

	removed, err := cleaner.PurgeCache(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
	require.Equal(t, 1, store.Len())

	jobs := tracker.Snapshot()
	require.Len(t, jobs, 1)
	require.Equal(t, JobCachePurge, jobs[0].Job)
	require.Equal(t, "success", jobs[0].LastStatus)
}

func TestCleanerRunOnceCollectsErrors(t *testing.T) {
	tracker := monitoring.NewJobTracker(nil)
	cleaner := NewCleaner(brokenStore{}, WithTracker(tracker))

	err := cleaner.RunOnce(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "store offline")
	require.EqualValues(t, 1, tracker.Snapshot()[0].ConsecutiveFailures)
}

func TestCleanerWithoutStoreIsNoop(t *testing.T) {
	cleaner := NewCleaner(nil)
	require.NoError(t, cleaner.Start())
	require.NoError(t, cleaner.RunOnce(context.Background()))
	<-cleaner.Stop().Done()
}

func TestCleanerStartRegistersSchedule(t *testing.T) {
	store, err := cache.NewMemoryStore(1)
	require.NoError(t, err)

	scheduler := cron.New(cron.WithLogger(cron.DiscardLogger))
	cleaner := NewCleaner(store, WithCron(scheduler), WithSchedule("@every 1h"))
	require.NoError(t, cleaner.Start())
	t.Cleanup(func() { <-cleaner.Stop().Done() })

	require.Len(t, scheduler.Entries(), 1)
}

func TestCleanerRejectsInvalidSchedule(t *testing.T) {
	store, err := cache.NewMemoryStore(1)
	require.NoError(t, err)

	cleaner := NewCleaner(store, WithSchedule("not a schedule"))
	require.Error(t, cleaner.Start())
}
