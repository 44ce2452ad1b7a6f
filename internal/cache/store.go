package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Store represents a shared cache interface used across the application.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Pinger is implemented by stores that can report their own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Purger is implemented by stores that do not expire entries on their own.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Backend names accepted by Open.
const (
	BackendRedis    = "redis"
	BackendDatabase = "database"
	BackendMemory   = "memory"
	BackendNone     = "none"
)

// Options selects the cache backend and carries its connection settings.
type Options struct {
	Backend string
	Redis   RedisConfig
	// MemoryEntries bounds the memory backend.
	MemoryEntries int
	// DB backs the database backend.
	DB *gorm.DB
}

// Open builds the configured backend. The none backend yields a nil Store,
// which callers treat as caching disabled. Redis is not contacted here; use
// Pinger to probe it.
func Open(opts Options) (Store, error) {
	switch backend := strings.ToLower(strings.TrimSpace(opts.Backend)); backend {
	case "", BackendMemory:
		store, err := NewMemoryStoreSize(opts.MemoryEntries)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendNone, "disabled":
		return nil, nil
	case BackendRedis:
		client, err := DialRedis(opts.Redis)
		if err != nil {
			return nil, err
		}
		return client, nil
	case BackendDatabase, "sql":
		if opts.DB == nil {
			return nil, errors.New("cache: database backend requires a SQL store")
		}
		return NewDatabaseStore(opts.DB), nil
	default:
		return nil, fmt.Errorf("cache: unsupported backend %q", backend)
	}
}

// Close releases resources held by store when it owns any.
func Close(store Store) error {
	if closer, ok := store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
