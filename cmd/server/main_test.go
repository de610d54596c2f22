package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benvon/emp-backend/internal/config"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerPort:      "0",
		LogFormat:       "json",
		RequestTimeout:  time.Second,
		ShutdownTimeout: time.Second,
		MaxRequestSize:  1 << 20,
	}
}

func TestSetupRateLimit_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rate     string
		redisURL string
	}{
		{"malformed rate", "lots", ""},
		{"malformed redis url", "10-S", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			cfg.RateLimit = tt.rate
			cfg.RedisURL = tt.redisURL

			mw, closeStore, err := setupRateLimit(context.Background(), cfg, zap.NewNop())
			if err == nil {
				t.Fatal("Expected error but got nil")
			}
			if mw != nil || closeStore != nil {
				t.Error("Expected no middleware or close func on error")
			}
		})
	}
}

func TestSetupRateLimit_MemoryStore(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RateLimit = "1-M"

	mw, closeStore, err := setupRateLimit(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer closeStore()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	codes := []int{}
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("Expected [200 429], got %v", codes)
	}
}

func TestRun_ReturnsStartupErrors(t *testing.T) {
	t.Parallel()

	badPolicy := filepath.Join(t.TempDir(), "cors.yaml")
	if err := os.WriteFile(badPolicy, []byte("allowed_origins: [\"*\"]\n"), 0o600); err != nil {
		t.Fatalf("Failed to write policy file: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"invalid cors policy", func(c *config.Config) { c.CorsConfigFile = badPolicy }},
		{"invalid rate limit", func(c *config.Config) { c.RateLimit = "lots" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			tt.mutate(cfg)
			if err := run(cfg, zap.NewNop()); err == nil {
				t.Error("Expected run to return an error")
			}
		})
	}
}
