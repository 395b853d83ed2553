package sink

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/warehouse/core"
)

// TracerName is the instrumentation scope of spans emitted by Tracing.
const TracerName = "github.com/petal-labs/warehouse"

// Tracing emits one span per record, backdated to the call's start time.
type Tracing struct {
	tracer trace.Tracer
}

// NewTracing creates a Tracing sink. A nil provider uses the global one.
func NewTracing(tp trace.TracerProvider) *Tracing {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracing{tracer: tp.Tracer(TracerName)}
}

// Submit records r as a span named after its sdk_method.
func (t *Tracing) Submit(r core.Record) {
	start := r.Time
	attrs := []attribute.KeyValue{
		attribute.String("llm.sdk_method", r.SDKMethod),
		attribute.String("llm.outcome", string(r.Outcome)),
		attribute.Bool("llm.streaming", r.Streaming),
		attribute.String("llm.record_id", r.ID),
	}
	if r.RequestID != nil {
		attrs = append(attrs, attribute.String("llm.request_id", *r.RequestID))
	}

	opts := []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	}
	if !start.IsZero() {
		opts = append(opts, trace.WithTimestamp(start))
	}
	_, span := t.tracer.Start(context.Background(), r.SDKMethod, opts...)

	if r.Failed() {
		span.SetStatus(codes.Error, r.Error)
	}
	if start.IsZero() {
		span.End()
		return
	}
	span.End(trace.WithTimestamp(start.Add(r.Latency)))
}

var _ core.Sink = (*Tracing)(nil)
