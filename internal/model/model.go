// Package model parses Casbin-style INI model definitions into a structured
// [Model] consumed by the matcher compiler and the effector.
package model

import "sort"

// Section names recognized by the parser. Any other bracketed header is
// accepted, and its contents are discarded.
const (
	SectionRequest     = "request_definition"
	SectionPolicy      = "policy_definition"
	SectionRole        = "role_definition"
	SectionEffect      = "policy_effect"
	SectionMatchers    = "matchers"
	defaultRequestKey  = "r"
	defaultPolicyKey   = "p"
	defaultEffectKey   = "e"
	defaultMatcherKey  = "m"
	defaultRoleKeyBase = "g"
)

// Model is the parsed, immutable configuration produced by [Parse] or
// [LoadFile]. Each field maps a short section key ("r", "p", "g", "g2",
// "e", "m") to its raw right-hand-side definition string.
type Model struct {
	Request  map[string]string
	Policy   map[string]string
	Role     map[string]string
	Effect   map[string]string
	Matchers map[string]string
}

func newModel() *Model {
	return &Model{
		Request:  map[string]string{},
		Policy:   map[string]string{},
		Role:     map[string]string{},
		Effect:   map[string]string{},
		Matchers: map[string]string{},
	}
}

// RequestDef returns the raw "r = ..." definition, e.g. "sub, obj, act".
func (m *Model) RequestDef() string { return m.Request[defaultRequestKey] }

// PolicyDef returns the raw "p = ..." definition, e.g. "sub, obj, act".
func (m *Model) PolicyDef() string { return m.Policy[defaultPolicyKey] }

// MatcherExpr returns the raw "m = ..." matcher expression.
func (m *Model) MatcherExpr() string { return m.Matchers[defaultMatcherKey] }

// EffectExpr returns the raw "e = ..." effect expression.
func (m *Model) EffectExpr() string { return m.Effect[defaultEffectKey] }

// RoleDefNames returns the role-definition keys present in the model
// ("g", "g2", "g3", ...), sorted for deterministic iteration.
func (m *Model) RoleDefNames() []string {
	names := make([]string, 0, len(m.Role))
	for k := range m.Role {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
