package middleware

import (
	"net/http"

	logpkg "github.com/benvon/emp-backend/internal/logger"
	"github.com/benvon/emp-backend/internal/metrics"
	"github.com/benvon/emp-backend/internal/models"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CorsObserver receives the outcome of the CORS policy for each request.
type CorsObserver interface {
	ObserveCorsDecision(decision string)
}

// CORSOption configures the CORS middleware
type CORSOption func(*corsFilter)

// WithCORSObserver reports every policy decision to o.
func WithCORSObserver(o CorsObserver) CORSOption {
	return func(f *corsFilter) {
		f.observer = o
	}
}

// WithCORSDebug routes rs/cors' decision trace into the logger at debug level.
func WithCORSDebug(enabled bool) CORSOption {
	return func(f *corsFilter) {
		f.debug = enabled
	}
}

type corsFilter struct {
	policy   *models.CorsPolicy
	methods  string
	log      *zap.Logger
	observer CorsObserver
	debug    bool
}

// CORS creates middleware that applies policy to every request under its path pattern.
//
// Allowed origins get Access-Control-Allow-Origin, -Credentials and -Methods headers. An
// OPTIONS request from an allowed origin is answered with 200 and an empty body. Anything
// else passes through untouched; the browser enforces the block.
func CORS(policy *models.CorsPolicy, log *zap.Logger, opts ...CORSOption) func(http.Handler) http.Handler {
	policy = policy.Clone()
	f := &corsFilter{
		policy:  policy,
		methods: policy.MethodsHeader(),
		log:     log,
	}
	for _, opt := range opts {
		opt(f)
	}

	engineOpts := cors.Options{
		// rs/cors lowercases its origin list; the policy matches exactly
		AllowOriginFunc:    policy.AllowsOrigin,
		AllowedMethods:     policy.AllowedMethods,
		AllowedHeaders:     policy.AllowedHeaders,
		AllowCredentials:   policy.AllowCredentials,
		MaxAge:             policy.MaxAge,
		OptionsPassthrough: true,
	}
	if f.debug {
		stdLog, err := zap.NewStdLogAt(log.Named("cors"), zapcore.DebugLevel)
		if err == nil {
			engineOpts.Debug = true
			engineOpts.Logger = stdLog
		}
	}
	engine := cors.New(engineOpts)

	log.Info("cors_policy_loaded",
		zap.String("path_pattern", policy.PathPattern),
		zap.Strings("allowed_origins", policy.AllowedOrigins),
		zap.String("allowed_methods", f.methods),
		zap.Bool("allow_credentials", policy.AllowCredentials),
		zap.Int("max_age", policy.MaxAge),
	)

	return func(next http.Handler) http.Handler {
		filtered := engine.Handler(f.finish(next))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !f.policy.MatchesPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			filtered.ServeHTTP(w, r)
		})
	}
}

// finish runs after rs/cors has decided. rs/cors only echoes the requested method on
// pre-flight and omits the header on actual requests, so the full set is written here.
func (f *corsFilter) finish(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		origin := r.Header.Get("Origin")

		if h.Get("Access-Control-Allow-Origin") == "" {
			if origin == "" {
				f.observe(metrics.CorsNone)
			} else {
				f.observe(metrics.CorsRejected)
				f.log.Debug("cors_origin_rejected",
					zap.String("origin", logpkg.SanitizeOrigin(origin)),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				)
			}
			next.ServeHTTP(w, r)
			return
		}

		h.Set("Access-Control-Allow-Methods", f.methods)

		if r.Method == http.MethodOptions {
			f.observe(metrics.CorsPreflight)
			w.WriteHeader(http.StatusOK)
			return
		}

		f.observe(metrics.CorsAllowed)
		next.ServeHTTP(w, r)
	})
}

func (f *corsFilter) observe(decision string) {
	if f.observer != nil {
		f.observer.ObserveCorsDecision(decision)
	}
}
