package middleware

import (
	"context"
	"time"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/cache"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// cacheRateStore keeps counters in the shared cache so every instance behind
// a load balancer sees the same window.
type cacheRateStore struct {
	store cache.Store
}

// NewRateStore wraps a cache store in a RateStore. A nil store yields nil,
// which disables rate limiting.
func NewRateStore(store cache.Store) RateStore {
	if store == nil {
		return nil
	}
	return &cacheRateStore{store: store}
}

func (s *cacheRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}
	count, ttl, err := s.store.IncrementWithTTL(ctx, key, window)
	return int(count), ttl, err
}
