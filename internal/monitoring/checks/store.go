package checks

import (
	"context"
	"time"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/cache"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/monitoring"
)

// Pinger is the reachability probe shared by the primary store and cache adapters.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store returns a readiness probe for the primary store. Requests cannot be
// served without it, so failures report StatusDown.
func Store(store Pinger) monitoring.Check {
	return monitoring.NewCheck("store", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if store == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDown,
				Details:  "store not configured",
				Duration: time.Since(start),
			}
		}
		if err := store.Ping(ctx); err != nil {
			result := monitoring.ResultFromError("store", err, time.Since(start))
			result.Status = monitoring.StatusDown
			return result
		}
		return monitoring.ProbeResult{
			Status:   monitoring.StatusUp,
			Duration: time.Since(start),
		}
	})
}

// Cache returns a readiness probe for the cache. A failing cache only
// degrades the service. A nil cache, or one that cannot report its own
// reachability, is reported up.
func Cache(c cache.Store) monitoring.Check {
	return monitoring.NewCheck("cache", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if c == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusUp,
				Details:  "cache disabled",
				Duration: time.Since(start),
			}
		}
		pinger, ok := c.(cache.Pinger)
		if !ok {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusUp,
				Duration: time.Since(start),
			}
		}
		if err := pinger.Ping(ctx); err != nil {
			result := monitoring.ResultFromError("cache", err, time.Since(start))
			result.Status = monitoring.StatusDegraded
			return result
		}
		return monitoring.ProbeResult{
			Status:   monitoring.StatusUp,
			Duration: time.Since(start),
		}
	})
}
