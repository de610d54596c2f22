package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort          string        `env:"SERVER_PORT" envDefault:"8080" validate:"required,numeric"`
	ServerDebugMode     bool          `env:"SERVER_DEBUG_MODE" envDefault:"false"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
	EnableHSTS          bool          `env:"ENABLE_HSTS" envDefault:"false"`
	CorsConfigFile      string        `env:"CORS_CONFIG_FILE"`
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	ShutdownTimeout     time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	MaxRequestSize      int64         `env:"MAX_REQUEST_SIZE" envDefault:"1048576" validate:"gt=0"`
	RateLimit           string        `env:"RATE_LIMIT"`
	// Only enable behind a proxy that overwrites X-Forwarded-For
	RateLimitTrustProxy bool          `env:"RATE_LIMIT_TRUST_PROXY" envDefault:"false"`
	RedisURL            string        `env:"REDIS_URL" validate:"omitempty,url"`
	MetricsAddr         string        `env:"METRICS_ADDR" validate:"omitempty,hostname_port"`
	OTELEnabled         bool          `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint        string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load loads configuration from environment variables. A .env file in the working
// directory is read first if present; variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("invalid configuration: %s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Addr returns the listen address for the public server.
func (c *Config) Addr() string {
	return ":" + c.ServerPort
}
