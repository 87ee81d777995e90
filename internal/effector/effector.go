// Package effector compiles a policy-effect expression (the model's "e"
// definition) into a Reducer: a function collapsing a stream of per-rule
// Effect outcomes into a single allow/deny boolean, with short-circuit
// evaluation.
package effector

import (
	"fmt"
	"strings"
)

// Effect is the outcome of evaluating one policy row's matcher against a
// request.
type Effect int

const (
	// Indeterminate means the row's matcher did not hold for this request.
	Indeterminate Effect = iota
	// Allow means the row matched and its effect is to permit the request.
	Allow
	// Deny means the row matched and its effect is to deny the request.
	Deny
)

func (e Effect) String() string {
	switch e {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "indeterminate"
	}
}

// Reducer collapses a sequence of per-rule Effects into a final
// allow/deny decision. Implementations must stop consuming effects as soon
// as the decision is determined.
type Reducer func(effects []Effect) bool

// CompileError is returned by [Compile] when the effect expression is not
// one of the three recognized forms. This is a fatal, load-time error.
type CompileError struct {
	Expr string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("effector: unsupported effect expression: %q", e.Expr)
}

// Compile normalizes expr (collapsing whitespace) and returns the matching
// Reducer, or a *CompileError if expr is not one of the three forms this
// revision recognizes.
func Compile(expr string) (Reducer, error) {
	switch normalize(expr) {
	case "some(where(p.eft==allow))":
		return allowOverride, nil
	case "some(where(p.eft==allow))&&!some(where(p.eft==deny))":
		return denyOverride, nil
	case "priority(p.eft)||deny":
		return priority, nil
	default:
		return nil, &CompileError{Expr: expr}
	}
}

// normalize strips every whitespace character so formatting differences in
// the model file ("some(where (p.eft == allow))" vs the canonical form)
// don't affect recognition.
func normalize(expr string) string {
	var b strings.Builder
	for _, r := range expr {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// allowOverride returns true as soon as any effect is Allow; consumes no
// further effects.
func allowOverride(effects []Effect) bool {
	for _, e := range effects {
		if e == Allow {
			return true
		}
	}
	return false
}

// denyOverride returns false as soon as any effect is Deny (deny wins);
// otherwise true iff at least one Allow was seen.
func denyOverride(effects []Effect) bool {
	sawAllow := false
	for _, e := range effects {
		switch e {
		case Deny:
			return false
		case Allow:
			sawAllow = true
		}
	}
	return sawAllow
}

// priority returns on the first non-Indeterminate effect: Allow -> true,
// Deny -> false. An empty or all-Indeterminate stream is false.
func priority(effects []Effect) bool {
	for _, e := range effects {
		switch e {
		case Allow:
			return true
		case Deny:
			return false
		}
	}
	return false
}
