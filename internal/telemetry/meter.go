package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/sentinelgate/rbacguard"

// NewStdoutMeterProvider builds a metric.MeterProvider that periodically
// writes collected instruments to w as newline-delimited JSON. Callers
// should call Shutdown on the returned provider to flush on exit.
func NewStdoutMeterProvider(w io.Writer, interval time.Duration) (*metric.MeterProvider, error) {
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating stdout metric exporter: %w", err)
	}
	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))),
	)
	return mp, nil
}

// MeteredEnforcer wraps an Enforcer, recording OpenTelemetry metric
// instruments alongside whatever tracing a TracedEnforcer already provides.
// The two wrap independently so a caller can compose Enforcer ->
// MeteredEnforcer -> TracedEnforcer in either order.
type MeteredEnforcer struct {
	inner        Enforcer
	enforceCount otelmetric.Int64Counter
	enforceDur   otelmetric.Float64Histogram
}

// NewMeteredEnforcer wraps inner using the meter named meterName from the
// global MeterProvider (or mp if non-nil).
func NewMeteredEnforcer(inner Enforcer, mp otelmetric.MeterProvider) (*MeteredEnforcer, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	count, err := meter.Int64Counter("rbacguard.enforce.count",
		otelmetric.WithDescription("Number of Enforce calls, by decision"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating enforce counter: %w", err)
	}
	dur, err := meter.Float64Histogram("rbacguard.enforce.duration",
		otelmetric.WithDescription("Enforce call latency in seconds"),
		otelmetric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating enforce duration histogram: %w", err)
	}

	return &MeteredEnforcer{inner: inner, enforceCount: count, enforceDur: dur}, nil
}

// Enforce delegates to the wrapped Enforcer, recording a decision-labeled
// count and a latency observation.
func (m *MeteredEnforcer) Enforce(ctx context.Context, request []string) (bool, error) {
	start := time.Now()
	allowed, err := m.inner.Enforce(ctx, request)
	elapsed := time.Since(start).Seconds()

	decision := "deny"
	if allowed {
		decision = "allow"
	}
	if err != nil {
		decision = "error"
	}

	attrs := otelmetric.WithAttributes(attribute.String("decision", decision))
	m.enforceCount.Add(ctx, 1, attrs)
	m.enforceDur.Record(ctx, elapsed, attrs)

	return allowed, err
}
