// Command authctxd serves the authorization context API used by the
// storefront applications: per-request context resolution plus the
// invalidation hook mutating services call when membership data changes.
package main

import (
	"context"
	"net"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/commercekit/authctx/pkg/authz"
	"github.com/commercekit/authctx/pkg/cache"
	"github.com/commercekit/authctx/pkg/config"
	"github.com/commercekit/authctx/pkg/httputil"
	"github.com/commercekit/authctx/pkg/middleware"
	"github.com/commercekit/authctx/pkg/observability"
	"github.com/commercekit/authctx/pkg/session"
	"github.com/commercekit/authctx/pkg/store/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	store, err := cache.New(cfg.Cache)
	if err != nil {
		logger.WithError(err).Error("failed to initialize cache backend")
		os.Exit(1)
	}
	logger.WithField("backend", cfg.Cache.Backend).Info("cache backend initialized")

	records, err := postgres.Open(cfg.PostgresURL)
	if err != nil {
		logger.WithError(err).Error("failed to connect to postgres")
		os.Exit(1)
	}

	svc := authz.NewService(store, records, session.ContextProvider{}, logger, metrics)

	cachePinger, _ := store.(observability.Pinger)
	health := observability.NewHealthChecker(records, cachePinger)

	router := mux.NewRouter()
	router.HandleFunc("/health", health.Readiness).Methods(http.MethodGet)
	router.HandleFunc("/health/live", health.Liveness).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", health.Readiness).Methods(http.MethodGet)
	if cfg.Observability.MetricsEnabled {
		router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// Internal surface for mutating services: invalidate synchronously
	// before they report success, so no stale authorization survives a
	// role or membership change.
	router.HandleFunc("/v1/internal/invalidate", func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			httputil.WriteBadRequest(w, "userId is required")
			return
		}
		svc.InvalidateUser(r.Context(), userID, r.URL.Query().Get("organizationId"))
		httputil.WriteNoContent(w)
	}).Methods(http.MethodPost)

	api := router.PathPrefix("/v1").Subrouter()
	api.Use(middleware.RequestID)
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(observability.WithLogger(r.Context(), logger)))
		})
	})
	api.Use(httputil.LoggingMiddleware)
	api.Use(sessionFromHeader)
	api.Use(middleware.RequireAuthContext(svc))
	api.HandleFunc("/me/context", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteSuccess(w, middleware.GetAuthContext(r))
	}).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("authctxd listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("server failed")
			os.Exit(1)
		}
	}()

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc("cache writes", func(ctx context.Context) error {
		svc.Close()
		return nil
	})
	shutdown.RegisterShutdownFunc("database", func(ctx context.Context) error {
		return records.Close()
	})
	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
		os.Exit(1)
	}
}

// sessionFromHeader trusts the authenticating reverse proxy's X-User-ID
// header and attaches the session the way the storefront apps' own session
// middleware would. Requests without the header proceed anonymously and
// fail at the authorization stage, not here.
func sessionFromHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := r.Header.Get("X-User-ID"); userID != "" {
			ctx := session.NewContext(r.Context(), &session.Session{User: session.User{ID: userID}})
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}
