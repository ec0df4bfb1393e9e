package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const clientTracerName = "a2adesk-client"

// StartClientSpan starts a client span for an outbound call. Caller must
// call End on the returned span.
func StartClientSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := Tracer(clientTracerName).Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attrs...)
	return ctx, span
}

// TraceHTTPRequest starts a span for an outbound HTTP call.
func TraceHTTPRequest(ctx context.Context, method, url string) (context.Context, trace.Span) {
	return StartClientSpan(ctx, "http."+method,
		attribute.String("http.method", method),
		attribute.String("http.url", url),
	)
}

// TraceHTTPResponse records the response status and error on span.
func TraceHTTPResponse(span trace.Span, statusCode int, err error) {
	if statusCode > 0 {
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
	}
	RecordError(span, err)
}

// RecordError marks span as failed when err is non-nil.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
