package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "loom"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "loom").
	TracerName string

	// Filter decides which events to trace. nil traces everything.
	Filter func(ev Event) bool

	// Attributes extracts extra span attributes per event.
	Attributes func(ev Event) []attribute.KeyValue

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) { c.TracerName = name }
}

// WithEventFilter sets a filter for traced events.
func WithEventFilter(filter func(ev Event) bool) OTelOption {
	return func(c *OTelConfig) { c.Filter = filter }
}

// WithAttributes sets a custom attribute extractor.
func WithAttributes(fn func(ev Event) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) { c.Attributes = fn }
}

// OpenTelemetry creates middleware that opens one span per dispatched
// event, carrying session, node, and event type, and records dispatch
// failures on the span. The tracer comes from the global provider.
func OpenTelemetry(opts ...OTelOption) Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return func(ev Event, next Next) error {
		if config.Filter != nil && !config.Filter(ev) {
			return next()
		}

		attrs := []attribute.KeyValue{
			attribute.String("loom.session_id", ev.Session),
			attribute.String("loom.node_id", ev.Node),
			attribute.String("loom.event_type", ev.Type),
		}
		if config.Attributes != nil {
			attrs = append(attrs, config.Attributes(ev)...)
		}

		_, span := config.tracer.Start(
			context.Background(),
			"loom."+ev.Type,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		err := next()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	}
}
