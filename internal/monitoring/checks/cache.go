package checks

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charlesng35/qualitree/internal/cache"
	"github.com/charlesng35/qualitree/internal/monitoring"
)

const cacheProbeKey = "health:probe"

// Cache writes and reads back a short-lived entry. A failing cache only degrades
// readiness because tree reads fall back to the database.
func Cache(store cache.Store) monitoring.Check {
	return monitoring.NewCheck("cache", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if store == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "cache disabled"}
		}

		value := []byte(start.UTC().Format(time.RFC3339Nano))
		if err := store.Set(ctx, cacheProbeKey, value, time.Minute); err != nil {
			return degraded(err, start)
		}
		got, ok, err := store.Get(ctx, cacheProbeKey)
		if err != nil {
			return degraded(err, start)
		}
		if !ok || !bytes.Equal(got, value) {
			return degraded(fmt.Errorf("cache probe value mismatch"), start)
		}
		return monitoring.ProbeResult{Status: monitoring.StatusUp, Duration: time.Since(start)}
	})
}

func degraded(err error, start time.Time) monitoring.ProbeResult {
	return monitoring.ProbeResult{
		Status:   monitoring.StatusDegraded,
		Details:  err.Error(),
		Duration: time.Since(start),
	}
}
