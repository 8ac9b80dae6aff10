// Package telemetry installs the global OpenTelemetry tracer provider that the
// per-package tracers and the otelhttp handler and transports report to.
package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc flushes pending spans and stops the provider.
type ShutdownFunc func(context.Context) error

// Options selects the span exporter. Console output goes to Writer.
type Options struct {
	Exporter    string // none, console or otlp
	ServiceName string
	Writer      io.Writer
}

// Setup installs a tracer provider and the W3C trace-context propagator.
// With exporter "none" only the propagator is installed, so incoming
// traceparent headers still flow through to outbound calls. The otlp exporter
// reads OTEL_EXPORTER_OTLP_* from the environment.
func Setup(ctx context.Context, opts Options) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	var exporter sdktrace.SpanExporter
	switch opts.Exporter {
	case "", "none":
		return func(context.Context) error { return nil }, nil
	case "console":
		w := opts.Writer
		if w == nil {
			w = io.Discard
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("console exporter: %w", err)
		}
		exporter = exp
	case "otlp":
		exp, err := otlptracehttp.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, fmt.Errorf("unsupported traces exporter %q", opts.Exporter)
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", opts.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
