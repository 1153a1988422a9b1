package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/aspect/plan"
)

// tracerName is the instrumentation scope name for aspect tracing.
const tracerName = "github.com/xraph/aspect"

// Tracing returns middleware that wraps plan execution in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop tracer
// is used and this middleware becomes a pass-through with zero overhead.
//
// Span attributes include: aspect.plan.id, aspect.execution.id,
// aspect.target, aspect.deferred, aspect.before_calls, aspect.after_calls.
// On error, the span status is set to codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, e *plan.Execution, next Handler) (any, error) {
		ctx, span := tracer.Start(ctx, "aspect.execute",
			trace.WithAttributes(
				attribute.String("aspect.plan.id", e.PlanID.String()),
				attribute.String("aspect.execution.id", e.ID.String()),
				attribute.String("aspect.target", e.Target),
				attribute.Bool("aspect.deferred", e.Deferred),
				attribute.Int("aspect.before_calls", e.BeforeCalls),
				attribute.Int("aspect.after_calls", e.AfterCalls),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		v, err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return v, err
	}
}
