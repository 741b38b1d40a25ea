// Package tracing provides OpenTelemetry tracing for the ops service: a
// global tracer, an optional stdout-less SDK setup, and HTTP middleware that
// starts a server span per request.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the global tracer for the ops service.
var tracer = otel.Tracer("foodshare-ops")

// Tracer returns the global tracer for creating spans.
func Tracer() trace.Tracer {
	return tracer
}

// Setup installs a minimal tracer provider with W3C trace-context
// propagation. The returned shutdown function flushes pending spans; call it
// on process exit.
func Setup() func(context.Context) error {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown
}
