package checks

import (
	"context"
	"time"

	"github.com/farmiq/farmiq/internal/cache"
	"github.com/farmiq/farmiq/internal/monitoring"
)

// Cache returns a readiness probe for the market cache store. Stores without a backing
// service (the in-process LRU) always report up.
func Cache(store cache.Store, driver string) monitoring.Check {
	return monitoring.NewCheck("cache", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if store == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "cache store unavailable"}
		}

		pinger, ok := store.(cache.Pinger)
		if !ok {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: driver}
		}

		if err := pinger.Ping(ctx); err != nil {
			// market requests still succeed without a cache, so a failing tier only degrades
			result := monitoring.ResultFromError("cache", err, time.Since(start))
			result.Status = monitoring.StatusDegraded
			return result
		}

		return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: driver, Duration: time.Since(start)}
	})
}
