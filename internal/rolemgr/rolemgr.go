// Package rolemgr implements the Role Manager: a concurrent, dual-indexed
// RBAC graph supporting directed (subject -> role) edges in an optional
// domain, O(1) direct lookup, iterative cycle-safe reachability, and
// optional pluggable role-name and domain-name matching predicates.
//
// Writes are serialized per instance through an internal mutex and publish
// a fresh immutable snapshot via atomic.Value; reads load that snapshot and
// never take a lock, so readers never block on writers or on each other.
// This is the same lock-free-read / serialized-write shape the coordinator
// uses for published engine configuration.
package rolemgr

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// RoleManager owns the role-inheritance graph for one named instance
// (e.g. "g", "g2" in a model's role_definition section).
type RoleManager struct {
	snapshot atomic.Value // holds *roleState
	mu       sync.Mutex   // serializes writers; never held by readers
	logger   *slog.Logger
}

// Option configures a RoleManager at construction time.
type Option func(*RoleManager)

// WithRoleMatcher installs the role-name matching predicate used in place
// of "==" during has_link? traversal.
func WithRoleMatcher(f MatchFunc) Option {
	return func(rm *RoleManager) {
		s := rm.load()
		rm.snapshot.Store(s.withMatchers(f, s.domainMatcher))
	}
}

// WithDomainMatcher installs the domain-name matching predicate used to
// widen get_roles/has_link? lookups across stored domains.
func WithDomainMatcher(f MatchFunc) Option {
	return func(rm *RoleManager) {
		s := rm.load()
		rm.snapshot.Store(s.withMatchers(s.roleMatcher, f))
	}
}

// WithLogger attaches a logger used by PrintRoles. A nil logger (the
// zero value) makes PrintRoles a no-op.
func WithLogger(logger *slog.Logger) Option {
	return func(rm *RoleManager) { rm.logger = logger }
}

// New creates an empty RoleManager.
func New(opts ...Option) *RoleManager {
	rm := &RoleManager{}
	rm.snapshot.Store(emptyState())
	for _, opt := range opts {
		opt(rm)
	}
	return rm
}

func (rm *RoleManager) load() *roleState {
	return rm.snapshot.Load().(*roleState)
}

// -- Writes -----------------------------------------------------------------

// AddLink inserts the edge (from -> to) in domain. Idempotent: adding the
// same edge twice leaves the graph unchanged.
func (rm *RoleManager) AddLink(from, to, domain string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	s := rm.load()
	next, _ := s.withEdge(from, to, domain)
	rm.snapshot.Store(next)
}

// DeleteLink removes the edge (from -> to) in domain. Removing an edge that
// does not exist is not an error.
func (rm *RoleManager) DeleteLink(from, to, domain string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	s := rm.load()
	rm.snapshot.Store(s.withoutEdge(from, to, domain))
}

// Clear drops all edges. Matcher predicates are preserved.
func (rm *RoleManager) Clear() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	s := rm.load()
	rm.snapshot.Store(s.cleared())
}

// AddMatchingFunc installs or replaces the role-name matching predicate.
// Pass nil to remove it and fall back to "==" comparison.
func (rm *RoleManager) AddMatchingFunc(f MatchFunc) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	s := rm.load()
	rm.snapshot.Store(s.withMatchers(f, s.domainMatcher))
}

// AddDomainMatchingFunc installs or replaces the domain-name matching
// predicate. Pass nil to remove it and fall back to exact-key lookup.
func (rm *RoleManager) AddDomainMatchingFunc(f MatchFunc) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	s := rm.load()
	rm.snapshot.Store(s.withMatchers(s.roleMatcher, f))
}

// -- Reads --------------------------------------------------------------
//
// Every read below loads the current snapshot once and operates on that
// immutable value; none of them take rm.mu, so reads never block behind a
// concurrent writer and never block each other.

// GetRoles returns the roles subject directly holds in domain. Order is
// unspecified. When a domain matcher is installed, all domains recorded for
// subject are scanned and those whose stored domain matches the requested
// domain (per the predicate) are included.
func (rm *RoleManager) GetRoles(subject, domain string) []string {
	s := rm.load()
	return getValues(s.forward, subject, domain, s.domainMatcher)
}

// GetUsers returns the subjects that directly hold role in domain. Order is
// unspecified. This mirrors GetRoles' domain-matcher behavior over the
// reverse index.
func (rm *RoleManager) GetUsers(role, domain string) []string {
	s := rm.load()
	return getValues(s.reverse, role, domain, s.domainMatcher)
}

func getValues(index map[string]map[string][]string, key, domain string, domainMatcher MatchFunc) []string {
	inner, ok := index[key]
	if !ok {
		return nil
	}

	if domainMatcher == nil {
		vals := inner[domain]
		out := make([]string, len(vals))
		copy(out, vals)
		return out
	}

	var out []string
	for storedDomain, vals := range inner {
		if domainMatcher(domain, storedDomain) {
			out = append(out, vals...)
		}
	}
	return out
}

// HasLink reports whether b is reachable from a in domain: a reflexive fast
// exit, an exact-edge fast path when no role matcher is installed, otherwise
// an iterative depth-first search over a visited set (cycle-safe, always
// terminates).
func (rm *RoleManager) HasLink(a, b, domain string) bool {
	if a == b {
		return true
	}

	s := rm.load()

	if s.roleMatcher == nil {
		if containsEdge(s.forward, a, domain, b) {
			return true
		}
	}

	stack := []string{a}
	visited := map[string]bool{a: true}

	for len(stack) > 0 {
		current := stack[0]
		stack = stack[1:]

		if matches(s.roleMatcher, current, b) {
			return true
		}

		for _, next := range getValues(s.forward, current, domain, s.domainMatcher) {
			if visited[next] {
				continue
			}
			visited[next] = true
			stack = append([]string{next}, stack...)
		}
	}

	return false
}

func matches(matcher MatchFunc, current, b string) bool {
	if matcher != nil {
		return matcher(current, b)
	}
	return current == b
}

// PrintRoles enumerates the forward index and emits a human-readable
// description of every edge via the logger supplied through WithLogger. A
// RoleManager with no logger configured does nothing.
func (rm *RoleManager) PrintRoles() {
	if rm.logger == nil {
		return
	}
	s := rm.load()
	for from, byDomain := range s.forward {
		for domain, tos := range byDomain {
			for _, to := range tos {
				rm.logger.Info("role link", "from", from, "to", to, "domain", domainLabel(domain))
			}
		}
	}
}

func domainLabel(domain string) string {
	if domain == "" {
		return "(none)"
	}
	return domain
}
