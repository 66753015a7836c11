// Package otel bridges the observe.Sink to OpenTelemetry tracing.
//
// It converts observe.Event objects into OTel spans so that runs, step
// executions, and routing decisions are visible in any
// OpenTelemetry-compatible backend (Jaeger, Zipkin, Grafana, etc.).
package otel

import (
	"context"
	"fmt"
	"time"

	"github.com/postgenhq/postgen/observe"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/postgenhq/postgen"

// Sink implements observe.Sink by emitting OpenTelemetry spans.
type Sink struct {
	tracer trace.Tracer
}

// NewSink creates an OTel sink using the given TracerProvider.
// If tp is nil, it uses a noop tracer provider.
func NewSink(tp trace.TracerProvider) *Sink {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &Sink{
		tracer: tp.Tracer(instrumentationName),
	}
}

// Emit converts an observe.Event into an OTel span.
func (s *Sink) Emit(_ context.Context, event observe.Event) error {
	event.Normalize()

	_, span := s.tracer.Start(context.Background(), spanNameFor(event),
		trace.WithTimestamp(event.Timestamp))

	attrs := []attribute.KeyValue{
		attribute.String("postgen.event.kind", string(event.Kind)),
	}
	if event.RunID != "" {
		attrs = append(attrs, attribute.String("postgen.run.id", event.RunID))
	}
	if event.Pattern != "" {
		attrs = append(attrs, attribute.String("postgen.workflow.pattern", event.Pattern))
	}
	if event.Name != "" {
		attrs = append(attrs, attribute.String("postgen.event.name", event.Name))
	}
	if event.Message != "" {
		attrs = append(attrs, attribute.String("postgen.event.message", event.Message))
	}
	if event.DurationMs > 0 {
		attrs = append(attrs, attribute.Int64("postgen.event.duration_ms", event.DurationMs))
	}
	for key, value := range event.Attributes {
		attrs = append(attrs, attribute.String("postgen.attr."+key, fmt.Sprint(value)))
	}
	span.SetAttributes(attrs...)

	if event.Status == observe.StatusFailed {
		span.SetStatus(codes.Error, event.Error)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	end := event.Timestamp
	if event.DurationMs > 0 {
		end = end.Add(time.Duration(event.DurationMs) * time.Millisecond)
	}
	span.End(trace.WithTimestamp(end))
	return nil
}

func spanNameFor(event observe.Event) string {
	if event.Name == "" {
		return string(event.Kind)
	}
	return fmt.Sprintf("%s.%s", event.Kind, event.Name)
}
