package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	logpkg "github.com/benvon/emp-backend/internal/logger"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const rateLimitKeyPrefix = "emp_backend_ratelimit"

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// NewLimiterStore returns a Redis-backed store when client is set, otherwise a
// process-local memory store.
func NewLimiterStore(client *redis.Client) (limiter.Store, error) {
	opts := limiter.StoreOptions{
		Prefix:          rateLimitKeyPrefix,
		MaxRetry:        limiter.DefaultMaxRetry,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	}
	if client == nil {
		return memorystore.NewStoreWithOptions(opts), nil
	}
	store, err := redisstore.NewStoreWithOptions(client, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
	}
	return store, nil
}

// RateLimit returns middleware limiting each client IP to rate, given in ulule's format
// (e.g. "100-S", "1000-M"). The client IP is the connection's peer address; X-Forwarded-For
// and X-Real-IP are only read when trustProxy is set, since any client can send them.
// Store errors fail open so an unavailable Redis never takes the liveness endpoint down.
func RateLimit(rate string, trustProxy bool, store limiter.Store, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}
	instance := limiter.New(store, parsed, limiter.WithTrustForwardHeader(trustProxy))

	keyGetter := instance.GetIPKey
	limitReached := func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("rate_limit_violation",
			zap.String("method", r.Method),
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
			zap.String("ip", instance.GetIPKey(r)),
		)
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
	}

	return func(next http.Handler) http.Handler {
		onError := func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("rate_limiter_unavailable_allowing_request", zap.Error(err))
			next.ServeHTTP(w, r)
		}
		mw := stdlibmw.NewMiddleware(instance,
			stdlibmw.WithKeyGetter(keyGetter),
			stdlibmw.WithLimitReachedHandler(limitReached),
			stdlibmw.WithErrorHandler(onError),
		)
		return mw.Handler(next)
	}, nil
}
