package app

import (
	"strings"

	"github.com/farmiq/farmiq/internal/cache"
)

// Cache drivers accepted by cache.driver.
const (
	CacheDriverMemory   = "memory"
	CacheDriverRedis    = "redis"
	CacheDriverDatabase = "database"
)

// NormalizedDriver returns the lower-cased cache driver, defaulting to memory.
func (c CacheConfig) NormalizedDriver() string {
	driver := strings.ToLower(strings.TrimSpace(c.Driver))
	if driver == "" {
		return CacheDriverMemory
	}
	return driver
}

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:  strings.TrimSpace(c.Redis.Address),
		Username: strings.TrimSpace(c.Redis.Username),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  c.Redis.Timeout,
	}
}
