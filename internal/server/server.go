package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/emp-backend/internal/config"
	"github.com/benvon/emp-backend/internal/handlers"
	"github.com/benvon/emp-backend/internal/metrics"
	"github.com/benvon/emp-backend/internal/middleware"
	"github.com/benvon/emp-backend/internal/models"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// ServiceName identifies the service in traces and metrics
const ServiceName = "emp-backend"

// Options holds everything the public handler is built from
type Options struct {
	Config *config.Config
	Policy *models.CorsPolicy
	Logger *zap.Logger

	// Optional
	Metrics   *metrics.Metrics
	RateLimit func(http.Handler) http.Handler
	Tracing   bool
}

// NewHandler builds the public handler: the middleware chain wrapped around the router.
// CORS wraps the router rather than being registered with r.Use, so it also sees requests
// that end in 404 or 405.
func NewHandler(opts Options) http.Handler {
	cfg := opts.Config
	log := opts.Logger

	r := mux.NewRouter()
	if opts.Tracing {
		r.Use(otelmux.Middleware(ServiceName))
	}
	handlers.NewHealthHandler(log).RegisterRoutes(r)

	corsOpts := []middleware.CORSOption{middleware.WithCORSDebug(cfg.ServerDebugMode)}

	// Outermost first
	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.SecurityHeaders(cfg.EnableHSTS),
		middleware.Logging(log),
	}
	if opts.Metrics != nil {
		chain = append(chain, middleware.Metrics(opts.Metrics))
		corsOpts = append(corsOpts, middleware.WithCORSObserver(opts.Metrics))
	}
	// Recovery sits inside logging and metrics so a panic is still recorded as a 500
	chain = append(chain,
		middleware.ErrorHandler(log),
		middleware.CORS(opts.Policy, log, corsOpts...),
	)
	if opts.RateLimit != nil {
		chain = append(chain, opts.RateLimit)
	}
	chain = append(chain,
		middleware.MaxRequestSize(cfg.MaxRequestSize),
		middleware.Timeout(cfg.RequestTimeout),
	)

	return middleware.Chain(r, chain...)
}

// New returns the public HTTP server.
func New(opts Options) *http.Server {
	return &http.Server{
		Addr:              opts.Config.Addr(),
		Handler:           NewHandler(opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      opts.Config.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}
}

// Run serves every server until ctx is cancelled or one of them fails, then shuts all of
// them down within shutdownTimeout.
func Run(ctx context.Context, log *zap.Logger, shutdownTimeout time.Duration, servers ...*http.Server) error {
	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			log.Info("server_starting", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("server_shutting_down")
	case runErr = <-errCh:
		log.Error("server_failed", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
		}
	}

	log.Info("server_exited")
	return runErr
}
