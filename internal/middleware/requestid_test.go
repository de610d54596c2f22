package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/emp-backend/internal/request"
	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		inbound    string
		wantReused bool
	}{
		{"generated when missing", "", false},
		{"reused when present", "trace-abc", true},
		{"regenerated when oversized", strings.Repeat("x", 200), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = request.RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.inbound != "" {
				req.Header.Set("X-Request-ID", tt.inbound)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			header := w.Header().Get("X-Request-ID")
			if header != seen {
				t.Errorf("Header %q and context %q disagree", header, seen)
			}
			if tt.wantReused {
				if header != tt.inbound {
					t.Errorf("Expected inbound ID %q to be reused, got %q", tt.inbound, header)
				}
				return
			}
			if _, err := uuid.Parse(header); err != nil {
				t.Errorf("Expected generated UUID, got %q: %v", header, err)
			}
		})
	}
}
