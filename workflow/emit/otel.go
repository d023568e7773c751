package emit

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter implements Emitter by creating OpenTelemetry spans.
//
// Each event becomes an immediately-ended span with:
//   - Span name: the event kind (e.g. "node_completed", "interrupted")
//   - Attributes: thread ID, node name, serialized payload
//   - Status: error when the event kind is "failed"
//
// Events represent points in time rather than durations, so the span is
// ended as soon as it is created; the batch span processor handles export.
//
// Usage:
//
//	tracer := otel.Tracer("threadflow")
//	emitter := emit.NewOTelEmitter(tracer)
//	engine := workflow.New(g, st, emitter, workflow.Options{})
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates a new OTelEmitter.
//
// The tracer typically comes from otel.Tracer("service-name") after the
// application installed an SDK tracer provider.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit creates an OpenTelemetry span for the event.
func (o *OTelEmitter) Emit(event Event) {
	ctx := context.Background()
	_, span := o.tracer.Start(ctx, string(event.Kind))
	defer span.End()

	span.SetAttributes(
		attribute.String("threadflow.thread_id", event.ThreadID),
		attribute.String("threadflow.event_kind", string(event.Kind)),
	)
	if event.Node != "" {
		span.SetAttributes(attribute.String("threadflow.node", event.Node))
	}
	if event.Payload != nil {
		span.SetAttributes(attribute.String("threadflow.payload", payloadAttribute(event.Payload)))
	}

	if event.Kind == KindFailed {
		msg := payloadAttribute(event.Payload)
		span.SetStatus(codes.Error, msg)
		span.RecordError(fmt.Errorf("%s", msg))
	}
}

// Flush forces export of all pending spans.
//
// OpenTelemetry buffers spans in a batch span processor for efficiency;
// call Flush before shutdown so buffered spans reach the backend.
func (o *OTelEmitter) Flush(ctx context.Context) error {
	tp := otel.GetTracerProvider()

	type flusher interface {
		ForceFlush(context.Context) error
	}
	if f, ok := tp.(flusher); ok {
		return f.ForceFlush(ctx)
	}

	// Provider doesn't support flushing (e.g., noop provider).
	return nil
}

// payloadAttribute renders an arbitrary payload as a span attribute value.
//
// JSON is preferred for structured payloads; the fmt fallback covers values
// that don't marshal.
func payloadAttribute(payload any) string {
	if payload == nil {
		return ""
	}
	if s, ok := payload.(string); ok {
		return s
	}
	if data, err := json.Marshal(payload); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", payload)
}
