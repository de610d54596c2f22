package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRespondText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"ok", http.StatusOK, "ok"},
		{"empty body", http.StatusNoContent, ""},
		{"error status", http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondText(w, tt.status, tt.body, zap.NewNop())

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			if got := w.Header().Get("Content-Type"); got != "text/plain; charset=utf-8" {
				t.Errorf("Expected text/plain content type, got %q", got)
			}
			if w.Body.String() != tt.body {
				t.Errorf("Expected body %q, got %q", tt.body, w.Body.String())
			}
		})
	}
}

type brokenWriter struct {
	header http.Header
}

func (b *brokenWriter) Header() http.Header {
	if b.header == nil {
		b.header = http.Header{}
	}
	return b.header
}

func (b *brokenWriter) WriteHeader(int) {}

func (b *brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestRespondText_WriteError(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	respondText(&brokenWriter{}, http.StatusOK, "ok", zap.New(core))

	if logs.FilterMessage("failed_to_write_response").Len() != 1 {
		t.Errorf("Expected one failed_to_write_response entry, got %d", logs.Len())
	}
}
