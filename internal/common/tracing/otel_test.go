package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointHost(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "strips http prefix", input: "http://localhost:4318", expected: "localhost:4318"},
		{name: "strips https prefix", input: "https://otel.example.com:4318", expected: "otel.example.com:4318"},
		{name: "returns unchanged when no scheme", input: "localhost:4318", expected: "localhost:4318"},
		{name: "handles empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, endpointHost(tt.input))
		})
	}
}

func TestClientSpans_NoopWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	ctx, span := TraceHTTPRequest(context.Background(), "POST", "http://agent.local")
	assert.NotNil(t, ctx)
	TraceHTTPResponse(span, 500, errors.New("boom"))
	span.End()
	assert.NoError(t, Shutdown(context.Background()))
}
