package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sentinelgate/rbacguard/internal/metrics"
	"github.com/sentinelgate/rbacguard/internal/telemetry"
)

var otelEnabled bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&otelEnabled, "otel", false,
		"emit an OpenTelemetry span and metric instruments per Enforce call, written as stdout JSON to stderr")
}

// newMetricsRegistry builds a fresh Prometheus registry and the Metrics
// instance recording against it. Every check/reload invocation gets its own
// registry, matching the one-shot, non-serving nature of this CLI.
func newMetricsRegistry() (*prometheus.Registry, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	return reg, metrics.New(reg)
}

// wrapEnforcer layers a MeteredEnforcer and TracedEnforcer around enforcer
// when --otel is set, returning a shutdown func that flushes both providers.
// The shutdown func is a no-op when --otel was not set.
func wrapEnforcer(enforcer telemetry.Enforcer) (telemetry.Enforcer, func(context.Context) error, error) {
	if !otelEnabled {
		return enforcer, func(context.Context) error { return nil }, nil
	}

	tp, err := telemetry.NewStdoutTracerProvider(os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("starting trace provider: %w", err)
	}
	mp, err := telemetry.NewStdoutMeterProvider(os.Stderr, time.Second)
	if err != nil {
		return nil, nil, fmt.Errorf("starting metric provider: %w", err)
	}

	metered, err := telemetry.NewMeteredEnforcer(enforcer, mp)
	if err != nil {
		return nil, nil, fmt.Errorf("starting metered enforcer: %w", err)
	}
	traced := telemetry.NewTracedEnforcer(metered, tp)

	shutdown := func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return err
		}
		return mp.Shutdown(ctx)
	}
	return traced, shutdown, nil
}
