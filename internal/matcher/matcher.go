// Package matcher compiles a Casbin matcher expression string into an
// opaque, immutable predicate over a (request vector, policy vector) pair.
//
// Compilation resolves r.<field>/p.<field> accesses to field names understood
// by github.com/Knetic/govaluate's dotted-accessor parameters (the same
// expression-evaluation library the real Casbin Go implementation links),
// binds g/g2/g3 calls to caller-supplied RoleManager handles, and links the
// five built-in predicates from internal/builtin. Unknown fields or
// unresolved g-handles fail at compile time with a typed [CompileError];
// evaluation never panics on well-formed compiled matchers.
package matcher

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/sentinelgate/rbacguard/internal/builtin"
	"github.com/sentinelgate/rbacguard/internal/model"
)

// RoleManager is the read surface the matcher needs from a role manager: a
// reachability check bound to one g/g2/g3 name. rolemgr.RoleManager
// satisfies this structurally.
type RoleManager interface {
	HasLink(a, b, domain string) bool
}

// Compiled is an opaque, immutable predicate produced by [Compile]. It
// captures the field-index maps for r and p, handles to zero or more named
// role managers, and the built-in operator functions; none of these can
// change after compilation.
type Compiled struct {
	expr      *govaluate.EvaluableExpression
	reqFields map[string]int
	polFields map[string]int
}

var undefinedFuncPattern = regexp.MustCompile(`[Uu]ndefined function ([A-Za-z_][A-Za-z0-9_]*)`)

// Compile builds a Compiled predicate from m's "r", "p", and "m" (matcher)
// definitions, binding any g/g2/g3 reference in the matcher expression to
// the RoleManager found under the same key in roleManagers.
func Compile(m *model.Model, roleManagers map[string]RoleManager) (*Compiled, error) {
	reqFields, err := parseFieldList(m.RequestDef())
	if err != nil {
		return nil, &CompileError{Msg: "request definition", Err: err}
	}
	polFields, err := parseFieldList(m.PolicyDef())
	if err != nil {
		return nil, &CompileError{Msg: "policy definition", Err: err}
	}

	expr := m.MatcherExpr()
	if strings.TrimSpace(expr) == "" {
		return nil, &CompileError{Msg: "matcher expression is empty"}
	}

	functions := builtinFunctions()
	for name, rm := range roleManagers {
		functions[name] = roleManagerFunction(rm)
	}

	compiledExpr, err := govaluate.NewEvaluableExpressionWithFunctions(expr, functions)
	if err != nil {
		if name, ok := undefinedRoleManagerName(err); ok {
			return nil, &CompileError{Msg: fmt.Sprintf("RoleManager for '%s' not found", name)}
		}
		return nil, &CompileError{Msg: "parsing matcher expression", Err: err}
	}

	for _, v := range compiledExpr.Vars() {
		if err := validateFieldRef(v, reqFields, polFields); err != nil {
			return nil, &CompileError{Msg: "matcher expression", Err: err}
		}
	}

	return &Compiled{expr: compiledExpr, reqFields: reqFields, polFields: polFields}, nil
}

// undefinedRoleManagerName extracts the function name from govaluate's
// "undefined function" parse error, when that name looks like a g-family
// reference (g, g2, g3, ...), so Compile can surface a precise
// "RoleManager for '<name>' not found" message instead of a raw parser
// error.
func undefinedRoleManagerName(err error) (string, bool) {
	match := undefinedFuncPattern.FindStringSubmatch(err.Error())
	if match == nil {
		return "", false
	}
	name := match[1]
	if !looksLikeRoleManagerName(name) {
		return "", false
	}
	return name, true
}

func looksLikeRoleManagerName(name string) bool {
	if !strings.HasPrefix(name, "g") {
		return false
	}
	for _, r := range name[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseFieldList splits a "sub, obj, act" definition into a name -> index
// map.
func parseFieldList(def string) (map[string]int, error) {
	if strings.TrimSpace(def) == "" {
		return nil, fmt.Errorf("empty field definition")
	}
	fields := map[string]int{}
	for i, raw := range strings.Split(def, ",") {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, fmt.Errorf("empty field name at position %d", i)
		}
		fields[name] = i
	}
	return fields, nil
}

// validateFieldRef checks that a variable name referenced by the matcher
// expression is a known r.<field> or p.<field> accessor.
func validateFieldRef(ref string, reqFields, polFields map[string]int) error {
	parts := strings.SplitN(ref, ".", 2)
	if len(parts) != 2 {
		// Bare identifiers that are neither "r.*" nor "p.*" are not part of
		// this grammar (every field access is namespaced); govaluate would
		// already have failed to resolve them as a function, so reaching
		// here with a non-namespaced var is itself an error.
		return fmt.Errorf("unrecognized reference %q: expected r.<field> or p.<field>", ref)
	}

	switch parts[0] {
	case "r":
		if _, ok := reqFields[parts[1]]; !ok {
			return fmt.Errorf("unknown request field %q", parts[1])
		}
	case "p":
		if _, ok := polFields[parts[1]]; !ok {
			return fmt.Errorf("unknown policy field %q", parts[1])
		}
	default:
		return fmt.Errorf("unrecognized reference %q: expected r.<field> or p.<field>", ref)
	}
	return nil
}

// Eval evaluates the compiled matcher against one request vector and one
// policy vector, in the order the model's r/p definitions declared their
// fields.
func (c *Compiled) Eval(r, p []string) (bool, error) {
	reqMap, err := vectorToMap(r, c.reqFields, "request")
	if err != nil {
		return false, err
	}
	polMap, err := vectorToMap(p, c.polFields, "policy")
	if err != nil {
		return false, err
	}

	result, err := c.expr.Evaluate(map[string]interface{}{"r": reqMap, "p": polMap})
	if err != nil {
		return false, &RuntimeEvalError{Msg: "evaluating matcher expression", Err: err}
	}

	b, ok := result.(bool)
	if !ok {
		return false, &RuntimeEvalError{Msg: fmt.Sprintf("matcher expression returned %T, want bool", result)}
	}
	return b, nil
}

func vectorToMap(values []string, fields map[string]int, label string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))
	for name, idx := range fields {
		if idx >= len(values) {
			return nil, &RuntimeEvalError{Msg: fmt.Sprintf("%s vector has %d values, missing field %q at index %d", label, len(values), name, idx)}
		}
		out[name] = values[idx]
	}
	return out, nil
}

// roleManagerFunction binds a g/g2/g3 call to a specific RoleManager handle.
// The optional third argument is the domain; when omitted, the default
// (global) domain "" is used.
func roleManagerFunction(rm RoleManager) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("g-function requires at least 2 arguments, got %d", len(args))
		}
		a, err := toString(args[0])
		if err != nil {
			return nil, err
		}
		b, err := toString(args[1])
		if err != nil {
			return nil, err
		}
		domain := ""
		if len(args) >= 3 {
			domain, err = toString(args[2])
			if err != nil {
				return nil, err
			}
		}
		return rm.HasLink(a, b, domain), nil
	}
}

// builtinFunctions wires the five required built-in predicates into
// govaluate's function table.
func builtinFunctions() map[string]govaluate.ExpressionFunction {
	wrap := func(f func(string, string) bool) govaluate.ExpressionFunction {
		return func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
			}
			a, err := toString(args[0])
			if err != nil {
				return nil, err
			}
			b, err := toString(args[1])
			if err != nil {
				return nil, err
			}
			return f(a, b), nil
		}
	}
	return map[string]govaluate.ExpressionFunction{
		"keyMatch":   wrap(builtin.KeyMatch),
		"keyMatch2":  wrap(builtin.KeyMatch2),
		"keyMatch3":  wrap(builtin.KeyMatch3),
		"regexMatch": wrap(builtin.RegexMatch),
		"ipMatch":    wrap(builtin.IPMatch),
	}
}

func toString(v interface{}) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}
