package model

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

const rbacModelText = `
# a comment line
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _
g2 = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && r.act == p.act
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseRBACModel(t *testing.T) {
	m, err := Parse(rbacModelText, discardLogger())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got, want := m.RequestDef(), "sub, obj, act"; got != want {
		t.Errorf("RequestDef() = %q, want %q", got, want)
	}
	if got, want := m.PolicyDef(), "sub, obj, act"; got != want {
		t.Errorf("PolicyDef() = %q, want %q", got, want)
	}
	if got := m.Role["g"]; got != "_, _" {
		t.Errorf("Role[g] = %q, want %q", got, "_, _")
	}
	if got := m.Role["g2"]; got != "_, _" {
		t.Errorf("Role[g2] = %q, want %q", got, "_, _")
	}
	if names := m.RoleDefNames(); len(names) != 2 || names[0] != "g" || names[1] != "g2" {
		t.Errorf("RoleDefNames() = %v, want [g g2]", names)
	}
	if m.EffectExpr() == "" {
		t.Error("EffectExpr() is empty")
	}
	if m.MatcherExpr() == "" {
		t.Error("MatcherExpr() is empty")
	}
}

func TestParseUnknownSectionIgnored(t *testing.T) {
	text := `
[totally_unknown]
foo = bar

[request_definition]
r = sub, obj, act
`
	m, err := Parse(text, discardLogger())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := m.RequestDef(), "sub, obj, act"; got != want {
		t.Errorf("RequestDef() = %q, want %q", got, want)
	}
}

func TestParseMalformedLineWarnsButContinues(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	text := `
[matchers]
this line has no equals sign
m = r.sub == p.sub
`
	m, err := Parse(text, logger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := m.MatcherExpr(), "r.sub == p.sub"; got != want {
		t.Errorf("MatcherExpr() = %q, want %q", got, want)
	}
	if !strings.Contains(buf.String(), "malformed line") {
		t.Errorf("expected a warning log for the malformed line, got: %s", buf.String())
	}
}

func TestLoadFileMissingFails(t *testing.T) {
	if _, err := LoadFile("/nonexistent/path/model.conf", discardLogger()); err == nil {
		t.Fatal("expected an error for a missing model file")
	}
}
