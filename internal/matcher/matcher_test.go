package matcher

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/sentinelgate/rbacguard/internal/model"
	"github.com/sentinelgate/rbacguard/internal/rolemgr"
)

func mustModel(t *testing.T, text string) *model.Model {
	t.Helper()
	m, err := model.Parse(text, slog.Default())
	if err != nil {
		t.Fatalf("model.Parse: %v", err)
	}
	return m
}

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && r.act == p.act
`

func TestCompileAndEvalMatch(t *testing.T) {
	m := mustModel(t, rbacModel)
	rm := rolemgr.New()
	rm.AddLink("alice", "admin", "")

	c, err := Compile(m, map[string]RoleManager{"g": rm})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	ok, err := c.Eval([]string{"alice", "/data/x", "read"}, []string{"admin", "/data/*", "read"})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !ok {
		t.Error("expected alice/admin request to match")
	}

	ok, err = c.Eval([]string{"bob", "/data/x", "read"}, []string{"admin", "/data/*", "read"})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if ok {
		t.Error("expected bob (no role) request not to match")
	}
}

func TestCompileUnknownFieldFails(t *testing.T) {
	m := mustModel(t, `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[matchers]
m = r.sub == p.sub && r.nope == p.act
`)
	_, err := Compile(m, nil)
	if err == nil {
		t.Fatal("expected a compile error for an unknown field")
	}
	var cerr *CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *CompileError, got %T: %v", err, err)
	}
}

func TestCompileUnknownRoleManagerFails(t *testing.T) {
	m := mustModel(t, rbacModel)
	_, err := Compile(m, nil) // no handle for "g"
	if err == nil {
		t.Fatal("expected a compile error for a missing RoleManager handle")
	}
	var cerr *CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *CompileError, got %T: %v", err, err)
	}
}

func TestEvalWithShortVectorIsRuntimeError(t *testing.T) {
	m := mustModel(t, rbacModel)
	rm := rolemgr.New()
	c, err := Compile(m, map[string]RoleManager{"g": rm})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	_, err = c.Eval([]string{"alice"}, []string{"admin", "/data/*", "read"})
	if err == nil {
		t.Fatal("expected a runtime eval error for a short request vector")
	}
	var rerr *RuntimeEvalError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RuntimeEvalError, got %T: %v", err, err)
	}
}

func TestCompilePurity(t *testing.T) {
	m := mustModel(t, rbacModel)
	rm := rolemgr.New()
	rm.AddLink("alice", "admin", "")

	c1, err := Compile(m, map[string]RoleManager{"g": rm})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	c2, err := Compile(m, map[string]RoleManager{"g": rm})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	r := []string{"alice", "/data/x", "read"}
	p := []string{"admin", "/data/*", "read"}
	ok1, err1 := c1.Eval(r, p)
	ok2, err2 := c2.Eval(r, p)
	if err1 != nil || err2 != nil {
		t.Fatalf("Eval errors: %v, %v", err1, err2)
	}
	if ok1 != ok2 {
		t.Errorf("two compiles of the same model diverged: %v vs %v", ok1, ok2)
	}
}
