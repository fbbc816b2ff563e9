package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vstore/pkg/store"
)

// Default tracer name for vstore stores.
const defaultTracerName = "vstore"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "vstore").
	TracerName string

	// TracerProvider supplies the tracer. Nil uses the global provider.
	TracerProvider trace.TracerProvider

	// Filter decides which writes are traced, by action name ("" for
	// unnamed partials). If nil, all writes are traced.
	Filter func(action string) bool

	// Attributes are added to every span.
	Attributes []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithActionFilter sets a filter function for writes.
func WithActionFilter(filter func(action string) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributes adds static attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// defaultOTelConfig returns the default OpenTelemetry configuration.
func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates middleware that traces every SetState.
//
// The middleware:
//   - Starts a span per write with the store name, mode and partial kind
//   - Names the span after the action for store.Action partials
//   - Records listener counts once notification finished
//   - Records a propagating listener panic as an error before re-panicking
//
// The tracer comes from the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure it in main():
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry[S any](opts ...OTelOption) store.Middleware[S] {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	provider := config.TracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	config.tracer = provider.Tracer(config.TracerName)

	return func(creator store.StateCreator[S]) store.StateCreator[S] {
		return func(set store.SetFunc[S], get store.GetFunc[S], api *store.Store[S]) S {
			wrapped := api.InstallSetter(func(partial store.Partial[S], replace ...bool) {
				action := store.ActionName(partial)
				if config.Filter != nil && !config.Filter(action) {
					set(partial, replace...)
					return
				}

				attrs := []attribute.KeyValue{
					attribute.String("vstore.store", storeLabel(api.Name())),
					attribute.String("vstore.mode", modeLabel(replace)),
					attribute.String("vstore.partial_kind", store.PartialKind(partial)),
				}
				if action != "" {
					attrs = append(attrs, attribute.String("vstore.action", action))
				}
				attrs = append(attrs, config.Attributes...)

				_, span := config.tracer.Start(
					context.Background(),
					formatSpanName(action),
					trace.WithSpanKind(trace.SpanKindInternal),
					trace.WithAttributes(attrs...),
				)
				defer span.End()

				defer func() {
					if r := recover(); r != nil {
						span.RecordError(fmt.Errorf("listener panic: %v", r))
						span.SetStatus(codes.Error, "listener panic")
						panic(r)
					}
				}()

				set(partial, replace...)

				span.SetAttributes(
					attribute.Int("vstore.listeners", api.ListenerCount()),
					attribute.Int("vstore.selector_subscriptions", api.SubscriptionCount()),
				)
				span.SetStatus(codes.Ok, "")
			})
			return creator(wrapped, get, api)
		}
	}
}

// formatSpanName creates a span name from the action.
func formatSpanName(action string) string {
	if action == "" {
		return "vstore.set_state"
	}
	return "vstore." + action
}
