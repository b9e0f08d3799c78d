// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	AUTHCTX_HOST="0.0.0.0"
//	AUTHCTX_PORT="8080"
//	AUTHCTX_READ_TIMEOUT="15s"
//	AUTHCTX_WRITE_TIMEOUT="15s"
//	AUTHCTX_IDLE_TIMEOUT="60s"
//	AUTHCTX_SHUTDOWN_TIMEOUT="30s"
//
// Cache settings:
//
//	AUTHCTX_CACHE_BACKEND="redis"  # redis, rest
//	AUTHCTX_REDIS_URL="redis://localhost:6379"
//	AUTHCTX_REDIS_PASSWORD=""
//	AUTHCTX_REDIS_DB="0"
//	AUTHCTX_REDIS_POOL_SIZE="10"
//	AUTHCTX_CACHE_REST_ENDPOINT="https://cache.example.com"
//	AUTHCTX_CACHE_REST_TOKEN="..."
//	AUTHCTX_CACHE_TIMEOUT="3s"
//
// Source of record:
//
//	AUTHCTX_POSTGRES_URL="postgres://localhost/app"
//
// Observability settings:
//
//	AUTHCTX_LOG_LEVEL="info"  # debug, info, warn, error
//	AUTHCTX_METRICS_ENABLED="true"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	store, err := cache.New(cfg.Cache)
//
// # Validation
//
// LoadConfig fails fast on an unusable configuration: a missing port, a
// backend without its connection settings, or a missing database URL.
package config
