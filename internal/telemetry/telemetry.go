// Package telemetry wraps Enforce calls in OpenTelemetry spans and metric
// instruments, with stdout exporters wired up for local development.
package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/sentinelgate/rbacguard"

// NewStdoutTracerProvider builds a trace.TracerProvider that writes spans to
// w as pretty-printed (indented) JSON. Callers should defer Shutdown on the
// returned provider.
func NewStdoutTracerProvider(w io.Writer) (*trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating stdout exporter: %w", err)
	}
	tp := trace.NewTracerProvider(trace.WithBatcher(exporter))
	return tp, nil
}

// Enforcer is the subset of *rbacguard.Engine this package instruments,
// expressed structurally so it never imports the facade package.
type Enforcer interface {
	Enforce(ctx context.Context, request []string) (bool, error)
}

// TracedEnforcer wraps an Enforcer, opening one span per Enforce call
// carrying the request vector and decision as span attributes.
type TracedEnforcer struct {
	inner  Enforcer
	tracer oteltrace.Tracer
}

// NewTracedEnforcer wraps inner using the tracer named tracerName from the
// global TracerProvider (or tp if non-nil).
func NewTracedEnforcer(inner Enforcer, tp oteltrace.TracerProvider) *TracedEnforcer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &TracedEnforcer{inner: inner, tracer: tp.Tracer(tracerName)}
}

// Enforce opens a span named "rbacguard.Enforce", delegates to the wrapped
// Enforcer, and records the request and decision as attributes before
// closing the span.
func (t *TracedEnforcer) Enforce(ctx context.Context, request []string) (bool, error) {
	ctx, span := t.tracer.Start(ctx, "rbacguard.Enforce")
	defer span.End()

	span.SetAttributes(attribute.StringSlice("rbacguard.request", request))

	allowed, err := t.inner.Enforce(ctx, request)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	span.SetAttributes(attribute.Bool("rbacguard.allowed", allowed))
	return allowed, nil
}
