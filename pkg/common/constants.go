package common

import "time"

const (
	EventCacheTTL = 5 * time.Minute

	// SecurityEventRetention bounds the per-client event list kept in redis.
	SecurityEventRetention = 1 * time.Hour
	SecurityEventMaxPerKey = 100
)

// CacheConfig holds redis connection settings shared by the cache and the
// guard stores.
type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TLS      bool
}
