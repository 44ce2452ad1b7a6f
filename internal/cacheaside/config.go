// Package cacheaside keeps cached entity snapshots consistent with the primary
// store. Reader populates the cache on a miss and Mutator writes refreshed
// counter views through after every increment.
package cacheaside

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/cache"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/store"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/logger"
)

// Defaults applied when Config leaves a value unset.
const (
	DefaultTTL          = time.Hour
	DefaultCacheTimeout = 100 * time.Millisecond
	DefaultStoreTimeout = 5 * time.Second
)

const instrumentationName = "github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/cacheaside"

// Config carries the collaborators shared by Reader and Mutator. Cache may be
// nil, in which case every call goes straight to the store.
type Config struct {
	Store store.Store
	Cache cache.Store

	TTL          time.Duration
	CacheTimeout time.Duration
	StoreTimeout time.Duration

	Logger *zap.Logger
	Tracer trace.Tracer
}

func (c Config) withDefaults() (Config, error) {
	if c.Store == nil {
		return c, errors.New("cacheaside: store is required")
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.CacheTimeout <= 0 {
		c.CacheTimeout = DefaultCacheTimeout
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = DefaultStoreTimeout
	}
	if c.Logger == nil {
		c.Logger = logger.WithModule("cacheaside")
	}
	if c.Tracer == nil {
		c.Tracer = otel.Tracer(instrumentationName)
	}
	return c, nil
}

// core holds the cache plumbing shared by Reader and Mutator.
type core struct {
	cfg Config
	log *zap.Logger
}

func newCore(cfg Config) (core, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return core{}, err
	}
	return core{cfg: cfg, log: cfg.Logger}, nil
}

func (c core) cacheGet(ctx context.Context, key string) ([]byte, bool, error) {
	if c.cfg.Cache == nil {
		return nil, false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CacheTimeout)
	defer cancel()
	return c.cfg.Cache.Get(ctx, key)
}

func (c core) cacheSet(ctx context.Context, key string, value []byte) error {
	if c.cfg.Cache == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CacheTimeout)
	defer cancel()
	return c.cfg.Cache.Set(ctx, key, value, c.cfg.TTL)
}

func (c core) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.cfg.StoreTimeout)
}
