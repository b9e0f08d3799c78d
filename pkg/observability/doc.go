// Package observability provides structured logging, Prometheus metrics, and health checks.
//
// # Overview
//
// This package centralizes observability infrastructure including JSON logging, metrics
// collection, health checks, and graceful shutdown.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel)
//	logger.Info("Server started")
//
// Context-aware logging:
//
//	logger.WithField("request_id", reqID).WithError(err).Error("Request failed")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.CacheHitsTotal.WithLabelValues("context").Inc()
//	metrics.ResolutionDuration.Observe(0.003)
//
// # Health Checks
//
// Configure health checker:
//
//	checker := observability.NewHealthChecker(records, cacheStore)
//	status := checker.Check(ctx)
//
// The cache is a best-effort dependency: an unreachable cache degrades the
// service but does not fail readiness, because resolution falls back to the
// source of record.
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/middleware: Request id middleware
package observability
