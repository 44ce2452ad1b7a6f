package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, ModeQuery, cfg.Server.Mode)
	require.True(t, cfg.Server.ServesQueries())
	require.False(t, cfg.Server.ServesCommands())
	require.Equal(t, 50, cfg.Server.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Store.Driver)
	require.Equal(t, 2*time.Second, cfg.Store.Timeout)
	require.Equal(t, "db.example.com", cfg.Store.Postgres.Host)
	require.Equal(t, 5433, cfg.Store.Postgres.Port)

	require.Equal(t, "redis", cfg.Cache.Backend)
	require.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	require.Equal(t, 50*time.Millisecond, cfg.Cache.Timeout)
	require.Equal(t, []string{"cache-1.example.com:6379", "cache-2.example.com:6379"}, cfg.Cache.Redis.Addresses)
	require.True(t, cfg.Cache.Redis.TLS)
	require.True(t, cfg.Cache.Redis.Cluster)
	require.Equal(t, 32, cfg.Cache.Redis.PoolSize)
	require.Equal(t, "feed:", cfg.Cache.Redis.KeyPrefix)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.True(t, cfg.Monitoring.Health.Enabled)

	require.True(t, cfg.Tracing.Enabled)
	require.Equal(t, "http://collector:4318", cfg.Tracing.Endpoint)
	require.Equal(t, "feed-query", cfg.Tracing.ServiceName)
	require.Equal(t, "@every 30m", cfg.Maintenance.CachePurgeSchedule)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, ModeAll, cfg.Server.Mode)
	require.True(t, cfg.Server.ServesQueries())
	require.True(t, cfg.Server.ServesCommands())
	require.Zero(t, cfg.Server.RateLimit.Requests)
	require.Equal(t, time.Minute, cfg.Server.RateLimit.Window)

	require.Equal(t, "sqlite", cfg.Store.Driver)
	require.Equal(t, 5*time.Second, cfg.Store.Timeout)
	require.Equal(t, "memory", cfg.Cache.Backend)
	require.Equal(t, time.Hour, cfg.Cache.TTL)
	require.Equal(t, 100*time.Millisecond, cfg.Cache.Timeout)
	require.Equal(t, 10000, cfg.Cache.MemoryEntries)
	require.Equal(t, []string{"127.0.0.1:6379"}, cfg.Cache.Redis.Addresses)
	require.Equal(t, "@hourly", cfg.Maintenance.CachePurgeSchedule)
	require.False(t, cfg.Tracing.Enabled)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SOCIAL_SERVER_PORT", "7070")
	t.Setenv("SOCIAL_SERVER_MODE", "COMMAND")
	t.Setenv("SOCIAL_CACHE_BACKEND", "none")
	t.Setenv("SOCIAL_CACHE_TTL", "10m")
	t.Setenv("SOCIAL_STORE_DRIVER", "mongodb")
	t.Setenv("SOCIAL_STORE_MONGODB_URI", "mongodb://mongo:27017")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, ModeCommand, cfg.Server.Mode)
	require.False(t, cfg.Server.ServesQueries())
	require.Equal(t, "none", cfg.Cache.Backend)
	require.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	require.Equal(t, "mongodb", cfg.Store.Driver)
	require.Equal(t, "mongodb://mongo:27017", cfg.Store.MongoDB.URI)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Run("mode", func(t *testing.T) {
		t.Setenv("SOCIAL_SERVER_MODE", "write-only")
		_, err := LoadConfig(t.TempDir())
		require.ErrorContains(t, err, "server.mode")
	})

	t.Run("port", func(t *testing.T) {
		t.Setenv("SOCIAL_SERVER_PORT", "70000")
		_, err := LoadConfig(t.TempDir())
		require.ErrorContains(t, err, "server.port")
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unterminated"), 0o600))
		_, err := LoadConfig(dir)
		require.ErrorContains(t, err, "config: read file")
	})
}

func TestStoreOptions(t *testing.T) {
	cfg := StoreConfig{
		Driver:   "mysql",
		Postgres: DBAuthConfig{Host: "pg.internal"},
		MySQL:    DBAuthConfig{Host: " mysql.internal ", Port: 3307, Database: "social", Username: "api", Password: "pw"},
		MongoDB:  MongoConfig{URI: "mongodb://mongo", Database: "feed"},
	}

	opts := cfg.StoreOptions()
	require.Equal(t, "mysql", opts.Driver)
	require.Equal(t, "mysql.internal", opts.SQL.Host)
	require.Equal(t, 3307, opts.SQL.Port)
	require.Equal(t, "social", opts.SQL.Name)
	require.Equal(t, "api", opts.SQL.User)
	require.Equal(t, "pw", opts.SQL.Password)
	require.Equal(t, "mongodb://mongo", opts.Mongo.URI)
	require.Equal(t, "feed", opts.Mongo.Database)

	sqlite := StoreConfig{Driver: "sqlite", Path: "./data/x.sqlite", Postgres: DBAuthConfig{Host: "pg"}}.StoreOptions()
	require.Equal(t, "./data/x.sqlite", sqlite.SQL.Path)
	require.Empty(t, sqlite.SQL.Host)
}

func TestCacheOptions(t *testing.T) {
	cfg := CacheConfig{
		Backend:       "redis",
		MemoryEntries: 42,
		Redis: RedisCacheConfig{
			Addresses: []string{" a:6379 ", "", "b:6379"},
			Username:  " user ",
			Cluster:   true,
			KeyPrefix: "feed:",
		},
	}

	opts := cfg.Options(nil)
	require.Equal(t, "redis", opts.Backend)
	require.Equal(t, 42, opts.MemoryEntries)
	require.Equal(t, []string{"a:6379", "b:6379"}, opts.Redis.Addresses)
	require.Equal(t, "user", opts.Redis.Username)
	require.True(t, opts.Redis.Cluster)
	require.Equal(t, "feed:", opts.Redis.KeyPrefix)
	require.Nil(t, opts.DB)
}
