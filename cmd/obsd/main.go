// Command obsd runs the observability daemon: the time-series store,
// background collectors, and the diagnostics HTTP surface fronted by
// the response-cache middleware.
//
// The business collector is wired by the CRM application embedding
// this module, since it needs a SourceOfRecord over the CRM database;
// obsd itself hosts the performance and retention collectors.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/leadrocket/observability/pkg/cache"
	"github.com/leadrocket/observability/pkg/collector"
	"github.com/leadrocket/observability/pkg/diag"
	"github.com/leadrocket/observability/pkg/httpcache"
	"github.com/leadrocket/observability/pkg/logging"
	"github.com/leadrocket/observability/pkg/metrics"
)

func main() {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") == "true",
		Output: os.Stderr,
	})

	redisURL := getEnv("REDIS_URL", "localhost:6379")
	port := getEnv("PORT", "8080")
	collectInterval := getEnvDuration("COLLECT_INTERVAL", 60*time.Second)
	retentionInterval := getEnvDuration("RETENTION_INTERVAL", 10*time.Minute)
	maxSampleAge := getEnvDuration("MAX_SAMPLE_AGE", collector.DefaultMaxSampleAge)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis is a soft dependency: an unreachable backend degrades the
	// cache to "always recompute" but never prevents startup.
	redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", redisURL).Msg("Redis unreachable, cache degraded")
	} else {
		logger.Info().Str("addr", redisURL).Msg("Connected to Redis")
	}
	cacheClient := cache.NewClient(redisClient)

	store := metrics.NewStore()
	store.MustRegister(collector.Catalog()...)

	sched := collector.NewScheduler()
	sched.Add(
		collector.NewPerformanceCollector(store).Job(collectInterval),
		collector.NewRetentionCollector(store, cacheClient, maxSampleAge).Job(retentionInterval),
	)
	go sched.Run(ctx)

	mux := http.NewServeMux()
	diag.NewHandler(store, cacheClient).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	handler := httpcache.New(httpcache.DefaultConfig(), cacheClient)(mux)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("Diagnostics server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown incomplete")
	}
	_ = redisClient.Close()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Plain integers are treated as seconds.
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}
