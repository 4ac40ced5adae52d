package pipeline

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// scope is the instrumentation scope name for OpenTelemetry.
const scope = "github.com/kroma-labs/conduit-go/pipeline"

// TracingPolicy opens an OpenTelemetry span around the remainder of the
// chain and records method, URL, status, and failures on it.
type TracingPolicy struct {
	tracer trace.Tracer
}

// NewTracingPolicy creates a TracingPolicy using the global tracer provider.
func NewTracingPolicy() *TracingPolicy {
	return &TracingPolicy{tracer: otel.Tracer(scope)}
}

// Do implements Policy.
func (p *TracingPolicy) Do(cc *CallContext, next *Next) (*Response, error) {
	req := cc.Request()

	spanName := "HTTP " + req.Method
	if v, ok := cc.Data("caller-method"); ok {
		if caller, ok := v.(string); ok && caller != "" {
			spanName = spanName + " " + caller
		}
	}

	ctx, span := p.tracer.Start(cc.Context(), spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL),
		),
	)
	defer span.End()

	prev := cc.ctx
	cc.ctx = ctx
	resp, err := next.Do()
	cc.ctx = prev

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, "")
	}
	return resp, nil
}
