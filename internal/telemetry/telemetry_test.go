package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

type fakeEnforcer struct {
	allowed bool
	err     error
	calls   [][]string
}

func (f *fakeEnforcer) Enforce(ctx context.Context, request []string) (bool, error) {
	f.calls = append(f.calls, request)
	return f.allowed, f.err
}

func TestTracedEnforcerDelegatesAndRecordsSpan(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewStdoutTracerProvider(&buf)
	if err != nil {
		t.Fatalf("NewStdoutTracerProvider: %v", err)
	}

	inner := &fakeEnforcer{allowed: true}
	traced := NewTracedEnforcer(inner, tp)

	allowed, err := traced.Enforce(context.Background(), []string{"alice", "/data/1", "read"})
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if !allowed {
		t.Error("expected the wrapped decision to be allowed")
	}
	if len(inner.calls) != 1 {
		t.Fatalf("expected exactly one delegated call, got %d", len(inner.calls))
	}

	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "rbacguard.Enforce") {
		t.Error("expected the exported span to record the rbacguard.Enforce span name")
	}
}

func TestTracedEnforcerPropagatesError(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewStdoutTracerProvider(&buf)
	if err != nil {
		t.Fatalf("NewStdoutTracerProvider: %v", err)
	}
	defer tp.Shutdown(context.Background())

	boom := errBoom
	inner := &fakeEnforcer{err: boom}
	traced := NewTracedEnforcer(inner, tp)

	_, err = traced.Enforce(context.Background(), []string{"alice"})
	if err != boom {
		t.Fatalf("Enforce() error = %v, want %v", err, boom)
	}
}

type testErr string

func (e testErr) Error() string { return string(e) }

const errBoom = testErr("boom")
