package observe

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// OpMeta contains metadata about a single cache operation for
// telemetry purposes.
type OpMeta struct {
	ID    string // client-supplied correlation id (required)
	Event string // wire event tag: SET, GET KEY, GET GROUP, DELETE KEY, DELETE GROUP, LIST
	Key   string // request key, when applicable (optional)
	Group string // request group, when applicable (optional)
}

// SpanName returns the deterministic span name for this operation.
// Format: cache.op.<event>, with the event tag lowercased and spaces
// replaced by underscores (e.g. "GET KEY" -> cache.op.get_key).
func (m OpMeta) SpanName() string {
	return "cache.op." + normalizeEvent(m.Event)
}

func normalizeEvent(event string) string {
	return strings.ReplaceAll(strings.ToLower(event), " ", "_")
}

// Tracer wraps OpenTelemetry tracing with per-operation span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan returns a context carrying the new span; it does not check ctx for cancellation.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a cache operation.
	StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with operation metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	spanName := meta.SpanName()

	attrs := []attribute.KeyValue{
		attribute.String("cache.op.id", meta.ID),
		attribute.String("cache.op.event", meta.Event),
		attribute.Bool("cache.op.error", false), // Will be updated in EndSpan if error
	}

	if meta.Key != "" {
		attrs = append(attrs, attribute.String("cache.op.key", meta.Key))
	}
	if meta.Group != "" {
		attrs = append(attrs, attribute.String("cache.op.group", meta.Group))
	}

	ctx, span := t.tracer.Start(ctx, spanName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("cache.op.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta OpMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
