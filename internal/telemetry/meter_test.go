package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestMeteredEnforcerRecordsDecisionCounts(t *testing.T) {
	var buf bytes.Buffer
	mp, err := NewStdoutMeterProvider(&buf, time.Millisecond)
	if err != nil {
		t.Fatalf("NewStdoutMeterProvider: %v", err)
	}

	inner := &fakeEnforcer{allowed: true}
	metered, err := NewMeteredEnforcer(inner, mp)
	if err != nil {
		t.Fatalf("NewMeteredEnforcer: %v", err)
	}

	allowed, err := metered.Enforce(context.Background(), []string{"alice", "/data/1", "read"})
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if !allowed {
		t.Error("expected the wrapped decision to be allowed")
	}

	if err := mp.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "rbacguard.enforce.count") {
		t.Error("expected the exported metrics to record the enforce count instrument")
	}
}

func TestMeteredEnforcerPropagatesError(t *testing.T) {
	var buf bytes.Buffer
	mp, err := NewStdoutMeterProvider(&buf, time.Millisecond)
	if err != nil {
		t.Fatalf("NewStdoutMeterProvider: %v", err)
	}
	defer mp.Shutdown(context.Background())

	boom := errBoom
	inner := &fakeEnforcer{err: boom}
	metered, err := NewMeteredEnforcer(inner, mp)
	if err != nil {
		t.Fatalf("NewMeteredEnforcer: %v", err)
	}

	_, err = metered.Enforce(context.Background(), []string{"alice"})
	if err != boom {
		t.Fatalf("Enforce() error = %v, want %v", err, boom)
	}
}
