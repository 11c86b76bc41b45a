package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for service spans
const TracerName = "github.com/arledger/backend"

// Common span attribute keys
const (
	SpanAttrTenantID      = "tenant.id"
	SpanAttrInvoiceID     = "invoice.id"
	SpanAttrPaymentID     = "payment.id"
	SpanAttrDisputeID     = "dispute.id"
	SpanAttrAmount        = "amount"
	SpanAttrMatchStatus   = "match.status"
	SpanAttrMatchCount    = "match.suggestion_count"
	SpanAttrCandidateSize = "match.candidate_count"
)

// StartSpan starts a span on the globally registered tracer
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name, opts...)
}

// StartServiceSpan starts a span named "{service}.{method}"
func StartServiceSpan(ctx context.Context, service, method string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", service, method))
}

// SetAttributes sets key/value pairs on the span. Values are converted
// with toAttribute; unknown types stringify.
func SetAttributes(span trace.Span, kv ...interface{}) {
	if len(kv)%2 != 0 {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, kv[i+1]))
	}
	span.SetAttributes(attrs...)
}

// SetAttribute sets a single attribute on the span
func SetAttribute(span trace.Span, key string, value interface{}) {
	span.SetAttributes(toAttribute(key, value))
}

// RecordError records the error and marks the span failed
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks the span successful
func SetOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddEvent adds a named event to the span
func AddEvent(span trace.Span, name string, kv ...interface{}) {
	if len(kv) == 0 {
		span.AddEvent(name)
		return
	}
	if len(kv)%2 != 0 {
		span.AddEvent(name)
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, kv[i+1]))
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

func toAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
