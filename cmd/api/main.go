// Package main is the entry point for the API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/gebrielmolla19/groupify/internal/analytics"
	"github.com/gebrielmolla19/groupify/internal/api"
	"github.com/gebrielmolla19/groupify/internal/config"
	"github.com/gebrielmolla19/groupify/internal/db"
	"github.com/gebrielmolla19/groupify/internal/group"
	"github.com/gebrielmolla19/groupify/internal/health"
	"github.com/gebrielmolla19/groupify/internal/idempotency"
	"github.com/gebrielmolla19/groupify/internal/middleware"
	"github.com/gebrielmolla19/groupify/internal/share"
	"github.com/gebrielmolla19/groupify/internal/tracing"
	"github.com/gebrielmolla19/groupify/internal/user"
)

const serviceName = "groupify-api"

func main() {
	help := flag.Bool("help", false, "display help message")
	configFile := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	if *help {
		fmt.Println("Groupify API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	summary := make([]any, 0, 28)
	for k, v := range cfg.LogSummary() {
		summary = append(summary, k, v)
	}
	logger.Info("configuration loaded", summary...)

	// Distributed tracing (optional)
	tracingProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: "otlp-grpc",
		OTLPEndpoint: cfg.TracingEndpoint,
		SamplingRate: 1.0,
		InsecureMode: !cfg.IsProduction(),
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingProvider.Shutdown(ctx); err != nil {
			logger.Error("failed to shut down tracing provider", "error", err)
		}
	}()

	// Repositories. Domain data is held in memory; DATABASE_URL currently
	// backs the readiness probe ahead of the Postgres repository work.
	groups := group.NewInMemoryRepository()
	shares := share.NewInMemoryRepository()
	users := user.NewInMemoryRepository()
	idempotencyRepo := idempotency.NewInMemoryRepository()

	var dbChecker api.HealthChecker
	if cfg.DatabaseURL != "" {
		sqlDB, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer sqlDB.Close()
		dbChecker = health.NewDBChecker(sqlDB)
		logger.Info("database connection established")
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register HTTP metrics", "error", err)
		os.Exit(1)
	}

	analyticsMetrics := analytics.NewMetrics()
	if err := analyticsMetrics.Register(registry); err != nil {
		logger.Error("failed to register analytics metrics", "error", err)
		os.Exit(1)
	}

	// Redis (optional) powers the analytics cache and distributed rate limiting.
	var redisChecker api.HealthChecker
	var rateLimitStore middleware.RateLimitStore
	var analyticsProvider api.AnalyticsProvider

	maxWindow := time.Duration(cfg.ActivityMaxWindowDays) * 24 * time.Hour
	analyticsService := analytics.NewService(shares, groups, users,
		analytics.WithMaxWindow(maxWindow),
		analytics.WithMetrics(analyticsMetrics),
	)
	analyticsProvider = analyticsService

	inMemoryLimits := middleware.NewInMemoryRateLimitStore()
	rateLimitStore = inMemoryLimits

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()

		redisChecker = health.NewRedisChecker(redisClient)
		rateLimitStore = middleware.NewRedisRateLimitStore(redisClient, logger, httpMetrics)

		cacheTTL := time.Duration(cfg.AnalyticsCacheTTLSeconds) * time.Second
		analyticsProvider = analytics.NewCachedService(
			analyticsService,
			analytics.NewRedisCacheStore(redisClient),
			cacheTTL,
			logger,
		)
		logger.Info("redis connected", "addr", cfg.RedisAddr)
	}

	// Periodic maintenance
	stopJobs := make(chan struct{})
	defer close(stopJobs)
	go idempotency.RunPeriodicCleanup(idempotencyRepo, time.Hour, idempotency.DefaultExpiry, stopJobs)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				inMemoryLimits.Cleanup()
			case <-stopJobs:
				return
			}
		}
	}()

	// Handlers and routes
	router := &api.Router{
		Users:     api.NewUserHandlers(users),
		Groups:    api.NewGroupHandlers(groups, shares),
		Shares:    api.NewShareHandlers(shares, groups),
		Analytics: api.NewAnalyticsHandlers(analyticsProvider),
		Health: api.NewHealthHandlers(api.HealthHandlersConfig{
			DBChecker:      dbChecker,
			RedisChecker:   redisChecker,
			MetricsEnabled: true,
		}),
	}

	mux := http.NewServeMux()
	router.Register(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"groupify-api","version":"0.1.0"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	handler := buildMiddlewareChain(mux, cfg, logger, httpMetrics, rateLimitStore, idempotencyRepo)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildMiddlewareChain wraps the mux with the full middleware stack, outermost
// first: RequestID, Tracing, Logging, HTTPMetrics, CORS, Profiling,
// RateLimiter, Idempotency.
func buildMiddlewareChain(
	mux *http.ServeMux,
	cfg *config.Config,
	logger *slog.Logger,
	metrics *middleware.Metrics,
	limits middleware.RateLimitStore,
	idempotencyRepo idempotency.Repository,
) http.Handler {
	var handler http.Handler = mux

	// Duplicate POST /shares requests replay the cached response.
	handler = middleware.Idempotency(idempotencyRepo, map[string]bool{
		"/shares": true,
	})(handler)

	handler = rateLimiters(limits, cfg)(handler)

	if cfg.ProfilingEnabled {
		handler = middleware.Profiling(middleware.ProfilingConfig{
			Enabled:     true,
			Environment: cfg.Env,
		})(handler)
	}

	if len(cfg.CORSAllowedOrigins) > 0 {
		handler = middleware.CORS(middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
		})(handler)
	}

	handler = middleware.HTTPMetrics(metrics)(handler)
	handler = middleware.Logging(logger)(handler)
	if cfg.TracingEnabled {
		handler = middleware.Tracing(serviceName)(handler)
	}
	handler = middleware.RequestID(handler)

	return handler
}

// rateLimiters dispatches requests to one of three limiters. Analytics reads
// walk every share in a group and get a tighter budget; writes sit between
// the two. Each class keeps its own bucket per client IP.
func rateLimiters(store middleware.RateLimitStore, cfg *config.Config) func(http.Handler) http.Handler {
	globalCfg := middleware.RateLimitConfig{RequestsPerWindow: cfg.RateLimitGlobal, WindowDuration: time.Minute}
	analyticsCfg := middleware.RateLimitConfig{RequestsPerWindow: cfg.RateLimitAnalytics, WindowDuration: time.Minute}
	writeCfg := middleware.RateLimitConfig{RequestsPerWindow: cfg.RateLimitWrite, WindowDuration: time.Minute}

	keyFor := func(class string) middleware.KeyFunc {
		base := middleware.IPKeyFunc()
		return func(r *http.Request) string {
			return class + ":" + base(r)
		}
	}

	return func(next http.Handler) http.Handler {
		global := middleware.RateLimiter(store, globalCfg, keyFor("global"))(next)
		analyticsLimited := middleware.RateLimiter(store, analyticsCfg, keyFor("analytics"))(global)
		writeLimited := middleware.RateLimiter(store, writeCfg, keyFor("write"))(global)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.Contains(r.URL.Path, "/analytics/"):
				analyticsLimited.ServeHTTP(w, r)
			case r.Method == http.MethodPost || r.Method == http.MethodDelete:
				writeLimited.ServeHTTP(w, r)
			default:
				global.ServeHTTP(w, r)
			}
		})
	}
}
