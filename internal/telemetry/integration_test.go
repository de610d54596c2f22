package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/emp-backend/internal/handlers"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

// TestLivenessTracePropagation verifies liveness requests are traced and join an inbound trace
func TestLivenessTracePropagation(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() {
		_ = tp.Shutdown(context.Background()) // Ignore error in test cleanup
	}()

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("test-service",
		otelmux.WithTracerProvider(tp),
		otelmux.WithPropagators(propagation.TraceContext{}),
	))
	handlers.NewHealthHandler(zap.NewNop()).RegisterRoutes(r)

	const parentTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"

	tests := []struct {
		name        string
		path        string
		traceParent string
	}{
		{name: "root without parent", path: "/"},
		{name: "healthz without parent", path: "/healthz"},
		{name: "healthz with parent", path: "/healthz", traceParent: "00-" + parentTraceID + "-00f067aa0ba902b7-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter.Reset()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.traceParent != "" {
				req.Header.Set("traceparent", tt.traceParent)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
				t.Errorf("Expected 200 ok, got %d %q", rr.Code, rr.Body.String())
			}

			if err := tp.ForceFlush(context.Background()); err != nil {
				t.Errorf("Failed to flush tracer provider: %v", err)
			}

			spans := exporter.GetSpans()
			if len(spans) != 1 {
				t.Fatalf("Expected exactly one span, got %d", len(spans))
			}
			if tt.traceParent != "" && spans[0].SpanContext.TraceID().String() != parentTraceID {
				t.Errorf("Expected span to join trace %s, got %s", parentTraceID, spans[0].SpanContext.TraceID())
			}
		})
	}
}
