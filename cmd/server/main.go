package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/emp-backend/internal/config"
	"github.com/benvon/emp-backend/internal/handlers"
	"github.com/benvon/emp-backend/internal/logger"
	"github.com/benvon/emp-backend/internal/metrics"
	"github.com/benvon/emp-backend/internal/middleware"
	"github.com/benvon/emp-backend/internal/server"
	"github.com/benvon/emp-backend/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug logging, including CORS decision traces")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	cfg.ServerDebugMode = cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.LogFormat, cfg.ServerDebugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	runErr := run(cfg, zapLogger)
	if runErr != nil {
		zapLogger.Error("server_stopped_with_error", zap.Error(runErr))
	}
	// Sync fails on stderr/stdout on some platforms; nothing to do about it
	_ = logger.Sync(zapLogger)
	if runErr != nil {
		os.Exit(1)
	}
}

// run wires the service and blocks until it stops. Deferred cleanup always runs before it
// returns, so main can exit afterwards.
func run(cfg *config.Config, zapLogger *zap.Logger) error {
	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", cfg.ServerDebugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("cors_config_file", cfg.CorsConfigFile),
		zap.Bool("rate_limit_enabled", cfg.RateLimit != ""),
		zap.String("metrics_addr", cfg.MetricsAddr),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	policy, err := config.LoadCorsPolicy(cfg.CorsConfigFile)
	if err != nil {
		return fmt.Errorf("load cors policy: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracing, shutdownTracing := telemetry.Setup(ctx, cfg.OTELEnabled, server.ServiceName, cfg.OTELEndpoint, zapLogger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	opts := server.Options{
		Config:  cfg,
		Policy:  policy,
		Logger:  zapLogger,
		Tracing: tracing,
	}

	servers := []*http.Server{}

	if cfg.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts.Metrics = metrics.New(registry, prometheus.Labels{"service": server.ServiceName}, handlers.HealthPaths...)
		servers = append(servers, metrics.NewServer(cfg.MetricsAddr, registry))
		zapLogger.Info("metrics_enabled", zap.String("addr", cfg.MetricsAddr))
	}

	if cfg.RateLimit != "" {
		limitMW, closeStore, err := setupRateLimit(ctx, cfg, zapLogger)
		if err != nil {
			return err
		}
		defer closeStore()
		opts.RateLimit = limitMW
	}

	servers = append([]*http.Server{server.New(opts)}, servers...)

	return server.Run(ctx, zapLogger, cfg.ShutdownTimeout, servers...)
}

// setupRateLimit builds the rate limit middleware, backed by Redis when REDIS_URL is set and
// by process memory otherwise. The returned close func releases the Redis connection.
func setupRateLimit(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (func(http.Handler) http.Handler, func(), error) {
	closeStore := func() {}

	var client *redis.Client
	if cfg.RedisURL != "" {
		var err error
		client, err = middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		zapLogger.Info("connected_to_redis")
		closeStore = func() {
			if err := client.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}
	}

	store, err := middleware.NewLimiterStore(client)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("create rate limit store: %w", err)
	}

	limitMW, err := middleware.RateLimit(cfg.RateLimit, cfg.RateLimitTrustProxy, store, zapLogger)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	zapLogger.Info("rate_limit_enabled",
		zap.String("rate", cfg.RateLimit),
		zap.Bool("redis_store", cfg.RedisURL != ""),
		zap.Bool("trust_proxy", cfg.RateLimitTrustProxy),
	)
	return limitMW, closeStore, nil
}
