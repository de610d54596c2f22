package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.uber.org/zap"
)

// ShutdownFunc flushes and stops tracing
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup initializes tracing when enabled. It returns whether tracing is active and a
// shutdown function that is always safe to call. A missing endpoint or exporter failure
// disables tracing with a warning rather than failing startup.
func Setup(ctx context.Context, enabled bool, serviceName, endpoint string, log *zap.Logger) (bool, ShutdownFunc) {
	if !enabled {
		return false, noopShutdown
	}
	if endpoint == "" {
		log.Warn("otel_enabled_but_endpoint_not_configured")
		return false, noopShutdown
	}

	tp, err := InitTracer(ctx, serviceName, endpoint)
	if err != nil {
		log.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		return false, noopShutdown
	}

	log.Info("otel_tracer_initialized", zap.String("endpoint", endpoint))
	return true, func(ctx context.Context) error {
		return Shutdown(ctx, tp)
	}
}

// InitTracer initializes the OpenTelemetry tracer provider
func InitTracer(ctx context.Context, serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // collector runs as a sidecar on the pod network
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Liveness probes dominate traffic; sample a fraction unless the parent decided
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.1))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}

// Shutdown gracefully shuts down the tracer provider
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
