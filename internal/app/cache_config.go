package app

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/cache"
)

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	addresses := make([]string, 0, len(c.Redis.Addresses))
	for _, addr := range c.Redis.Addresses {
		if addr = strings.TrimSpace(addr); addr != "" {
			addresses = append(addresses, addr)
		}
	}
	return cache.RedisConfig{
		Addresses: addresses,
		Username:  strings.TrimSpace(c.Redis.Username),
		Password:  c.Redis.Password,
		DB:        c.Redis.DB,
		TLS:       c.Redis.TLS,
		Cluster:   c.Redis.Cluster,
		PoolSize:  c.Redis.PoolSize,
		Timeout:   c.Redis.Timeout,
		KeyPrefix: c.Redis.KeyPrefix,
	}
}

// Options builds cache.Open options. db backs the database backend and may be nil otherwise.
func (c CacheConfig) Options(db *gorm.DB) cache.Options {
	return cache.Options{
		Backend:       c.Backend,
		Redis:         c.RedisClientConfig(),
		MemoryEntries: c.MemoryEntries,
		DB:            db,
	}
}
