package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for bird spans.
const TracerName = "github.com/teemow/bird"

// Span attribute keys.
const (
	SpanAttrTool      = "mcp.tool"
	SpanAttrService   = "bird.service"
	SpanAttrOperation = "bird.operation"
	SpanAttrRequestID = "bird.request_id"
	SpanAttrErrorType = "bird.error_type"
	SpanAttrReadOnly  = "mcp.read_only"
)

// StartToolSpan starts a server span for an MCP tool invocation. The
// caller ends it.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+1)
	all = append(all, attribute.String(SpanAttrTool, toolName))
	all = append(all, attrs...)

	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, "tool."+toolName,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// ToolAttributes returns the standard attributes of a tool span.
func ToolAttributes(service, operation, requestID string, readOnly bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.Bool(SpanAttrReadOnly, readOnly)}
	if service != "" {
		attrs = append(attrs, attribute.String(SpanAttrService, service))
	}
	if operation != "" {
		attrs = append(attrs, attribute.String(SpanAttrOperation, operation))
	}
	if requestID != "" {
		attrs = append(attrs, attribute.String(SpanAttrRequestID, requestID))
	}
	return attrs
}

// SetSpanError records err and marks the span failed.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanFailure marks the span failed with an envelope error kind and message.
func SetSpanFailure(span trace.Span, errorType, msg string) {
	span.SetAttributes(attribute.String(SpanAttrErrorType, errorType))
	span.SetStatus(codes.Error, msg)
}

// SetSpanSuccess marks the span OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID of the span in ctx, or "".
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
