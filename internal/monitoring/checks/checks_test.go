package checks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/farmiq/farmiq/internal/cache"
	"github.com/farmiq/farmiq/internal/database/testutil"
	"github.com/farmiq/farmiq/internal/monitoring"
)

type pingStore struct {
	cache.Store
	err error
}

func (p pingStore) Ping(context.Context) error { return p.err }

func TestDatabaseCheck(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	result := Database(db).Run(context.Background())
	require.Equal(t, monitoring.StatusUp, result.Status)
	require.Contains(t, result.Details, "sqlite")

	result = Database(nil).Run(context.Background())
	require.Equal(t, monitoring.StatusDown, result.Status)
}

func TestCacheCheck(t *testing.T) {
	memory, err := cache.NewMemoryStore(4)
	require.NoError(t, err)

	result := Cache(memory, "memory").Run(context.Background())
	require.Equal(t, monitoring.StatusUp, result.Status)

	result = Cache(pingStore{Store: memory}, "redis").Run(context.Background())
	require.Equal(t, monitoring.StatusUp, result.Status)

	result = Cache(pingStore{Store: memory, err: errors.New("connection refused")}, "redis").Run(context.Background())
	require.Equal(t, monitoring.StatusDegraded, result.Status)
	require.Contains(t, result.Details, "connection refused")
}

func TestMaintenanceCheck(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	tracker := monitoring.NewJobTracker(clock)
	check := Maintenance(tracker, time.Hour)

	require.Equal(t, monitoring.StatusUp, check.Run(context.Background()).Status)

	tracker.Register("cache_purge")
	result := check.Run(context.Background())
	require.Equal(t, monitoring.StatusUp, result.Status)
	require.Contains(t, result.Details, "pending first run")

	tracker.Record("cache_purge", nil, time.Millisecond)
	require.Equal(t, monitoring.StatusUp, check.Run(context.Background()).Status)

	clock.Advance(2 * time.Hour)
	require.Equal(t, monitoring.StatusDegraded, check.Run(context.Background()).Status)

	tracker.Record("cache_purge", errors.New("disk full"), time.Millisecond)
	result = check.Run(context.Background())
	require.Equal(t, monitoring.StatusDown, result.Status)
	require.Contains(t, result.Details, "disk full")
}
