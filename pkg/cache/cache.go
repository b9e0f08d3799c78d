package cache

import (
	"context"
	"fmt"
	"time"
)

// Store is the uniform contract both cache backends implement. Values are
// always strings; structured records are serialized before storage and
// parsed back on read by the caller.
//
// Backend errors are returned as-is. Callers that treat the cache as
// best-effort (the authorization resolvers do) degrade a read error to a
// miss and log-and-drop a write error; the Store itself never hides
// failures.
type Store interface {
	// Get returns the value for key. The second return is false when the
	// key is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// SetEx stores value under key with the given TTL.
	SetEx(ctx context.Context, key string, ttl time.Duration, value string) error

	// Del removes the given keys and returns how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Keys returns all keys matching a glob-style pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// Backend names accepted by Config.Backend.
const (
	BackendRedis = "redis"
	BackendREST  = "rest"
)

// Config holds cache backend configuration. The backend is chosen once at
// process start; call sites only ever see the Store interface.
type Config struct {
	Backend string

	// Redis (direct socket connection, development and self-hosted)
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RedisMaxRetries int
	RedisPoolSize   int

	// REST (managed HTTP cache, production)
	RESTEndpoint string
	RESTToken    string

	// RequestTimeout bounds every backend call. A timed-out read is a
	// miss to the callers above, a timed-out write is logged and dropped.
	RequestTimeout time.Duration
}

// DefaultConfig returns a Config with sane defaults for local development.
func DefaultConfig() Config {
	return Config{
		Backend:         BackendRedis,
		RedisURL:        "redis://localhost:6379",
		RedisDB:         0,
		RedisMaxRetries: 3,
		RedisPoolSize:   10,
		RequestTimeout:  3 * time.Second,
	}
}

// New constructs the Store selected by cfg.Backend.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendRedis:
		return NewRedisStore(cfg)
	case BackendREST:
		return NewRESTStore(cfg)
	default:
		return nil, fmt.Errorf("unknown cache backend: %q (must be %s or %s)", cfg.Backend, BackendRedis, BackendREST)
	}
}
