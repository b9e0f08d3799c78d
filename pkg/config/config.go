package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/commercekit/authctx/pkg/cache"
	"github.com/commercekit/authctx/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Cache backend configuration
	Cache cache.Config

	// PostgresURL is the source-of-record connection string
	PostgresURL string

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Cache:         loadCacheConfig(),
		PostgresURL:   getEnv("AUTHCTX_POSTGRES_URL", ""),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("AUTHCTX_HOST", "0.0.0.0"),
		Port:            getEnv("AUTHCTX_PORT", "8080"),
		ReadTimeout:     getEnvDuration("AUTHCTX_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("AUTHCTX_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("AUTHCTX_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("AUTHCTX_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// loadCacheConfig loads cache backend configuration from environment
func loadCacheConfig() cache.Config {
	cfg := cache.DefaultConfig()

	if backend := getEnv("AUTHCTX_CACHE_BACKEND", ""); backend != "" {
		cfg.Backend = strings.ToLower(backend)
	}

	// Redis (direct connection) config
	if redisURL := getEnv("AUTHCTX_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if redisPassword := getEnv("AUTHCTX_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("AUTHCTX_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if redisMaxRetries := getEnvInt("AUTHCTX_REDIS_MAX_RETRIES", 0); redisMaxRetries > 0 {
		cfg.RedisMaxRetries = redisMaxRetries
	}
	if redisPoolSize := getEnvInt("AUTHCTX_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		cfg.RedisPoolSize = redisPoolSize
	}

	// Managed REST cache config
	if endpoint := getEnv("AUTHCTX_CACHE_REST_ENDPOINT", ""); endpoint != "" {
		cfg.RESTEndpoint = endpoint
	}
	if token := getEnv("AUTHCTX_CACHE_REST_TOKEN", ""); token != "" {
		cfg.RESTToken = token
	}

	if timeout := getEnvDuration("AUTHCTX_CACHE_TIMEOUT", 0); timeout > 0 {
		cfg.RequestTimeout = timeout
	}

	return cfg
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("AUTHCTX_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("AUTHCTX_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Cache.Backend {
	case cache.BackendRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("redis URL is required for the redis cache backend")
		}
	case cache.BackendREST:
		if c.Cache.RESTEndpoint == "" || c.Cache.RESTToken == "" {
			return fmt.Errorf("endpoint and token are required for the rest cache backend")
		}
	default:
		return fmt.Errorf("invalid cache backend: %s (must be %s or %s)", c.Cache.Backend, cache.BackendRedis, cache.BackendREST)
	}

	if c.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
