// Package rbacguard is the facade tying the model parser, role managers,
// matcher compiler, and effector together into a single Enforce call, plus
// a process-wide registry of named Engine instances.
package rbacguard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/sentinelgate/rbacguard/internal/effector"
	"github.com/sentinelgate/rbacguard/internal/matcher"
	"github.com/sentinelgate/rbacguard/internal/model"
	"github.com/sentinelgate/rbacguard/internal/rolemgr"
)

// Engine is a compiled authorization model: its compiled matcher, effect
// reducer, named role managers, and the policy rows the matcher evaluates
// requests against. The matcher, reducer, and role managers are fixed at
// construction; the policy rows may be mutated in place via AddPolicy and
// RemovePolicy, published through an atomic.Value snapshot so Enforce never
// blocks behind a concurrent mutation. A coordinator that instead wants to
// replace the whole model calls Build again and swaps the result into a
// Registry; holders of the old *Engine keep evaluating against it.
type Engine struct {
	model        *model.Model
	compiled     *matcher.Compiled
	reducer      effector.Reducer
	roleManagers map[string]*rolemgr.RoleManager
	rowsSnapshot atomic.Value // holds []policyRow
	rowsMu       sync.Mutex   // serializes AddPolicy/RemovePolicy writers
	cache        *resultCache
	watcher      Watcher
	logger       *slog.Logger
}

type policyRow struct {
	ptype  string
	values []string
}

// Option configures Engine construction.
type Option func(*buildConfig)

type buildConfig struct {
	roleOptions map[string][]rolemgr.Option
	watcher     Watcher
	logger      *slog.Logger
	cacheSize   int
}

// WithRoleManagerOptions attaches rolemgr.Option values to the RoleManager
// built for the named role definition (e.g. "g", "g2").
func WithRoleManagerOptions(name string, opts ...rolemgr.Option) Option {
	return func(c *buildConfig) {
		c.roleOptions[name] = append(c.roleOptions[name], opts...)
	}
}

// WithWatcher attaches a Watcher notified after successful policy mutations.
// Defaults to NopWatcher.
func WithWatcher(w Watcher) Option {
	return func(c *buildConfig) { c.watcher = w }
}

// WithLogger attaches a logger used for load/reload diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *buildConfig) { c.logger = logger }
}

// WithCacheSize bounds the number of Enforce decisions cached by request
// vector. Zero disables caching.
func WithCacheSize(size int) Option {
	return func(c *buildConfig) { c.cacheSize = size }
}

// Build parses m's role definitions, constructs one RoleManager per
// definition, loads rows from adapter, routes g-section rows to their
// RoleManager and p-section rows into the Engine's enforcement candidates,
// compiles the matcher and effector, and returns the resulting Engine.
func Build(ctx context.Context, m *model.Model, adapter PolicyAdapter, opts ...Option) (*Engine, error) {
	cfg := &buildConfig{
		roleOptions: make(map[string][]rolemgr.Option),
		watcher:     NopWatcher{},
		logger:      slog.Default(),
		cacheSize:   1000,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	roleManagers := make(map[string]*rolemgr.RoleManager)
	for _, name := range m.RoleDefNames() {
		roleManagers[name] = rolemgr.New(cfg.roleOptions[name]...)
	}

	matcherHandles := make(map[string]matcher.RoleManager, len(roleManagers))
	for name, rm := range roleManagers {
		matcherHandles[name] = rm
	}

	compiled, err := matcher.Compile(m, matcherHandles)
	if err != nil {
		return nil, fmt.Errorf("rbacguard: compiling matcher: %w", err)
	}

	reducer, err := effector.Compile(m.EffectExpr())
	if err != nil {
		return nil, fmt.Errorf("rbacguard: compiling effect expression: %w", err)
	}

	rows, err := adapter.LoadPolicy(ctx)
	if err != nil {
		return nil, fmt.Errorf("rbacguard: loading policy: %w", err)
	}

	var prows []policyRow
	for _, r := range rows {
		if r.Section == "g" {
			rm, ok := roleManagers[r.PType]
			if !ok {
				return nil, fmt.Errorf("rbacguard: policy row for undeclared role manager %q", r.PType)
			}
			if len(r.Values) < 2 {
				return nil, fmt.Errorf("rbacguard: g-row for %q has fewer than 2 values: %v", r.PType, r.Values)
			}
			domain := ""
			if len(r.Values) >= 3 {
				domain = r.Values[2]
			}
			rm.AddLink(r.Values[0], r.Values[1], domain)
			continue
		}
		prows = append(prows, policyRow{ptype: r.PType, values: r.Values})
	}

	e := &Engine{
		model:        m,
		compiled:     compiled,
		reducer:      reducer,
		roleManagers: roleManagers,
		cache:        newResultCache(cfg.cacheSize),
		watcher:      cfg.watcher,
		logger:       cfg.logger,
	}
	e.rowsSnapshot.Store(prows)
	cfg.logger.Info("rbacguard: engine built", "policy_rows", len(prows), "role_managers", len(roleManagers))
	return e, nil
}

func (e *Engine) loadRows() []policyRow {
	return e.rowsSnapshot.Load().([]policyRow)
}

// EnforceTrace carries the diagnostic detail of one Enforce call, useful for
// audit logs and the telemetry span wrapper.
type EnforceTrace struct {
	ID       string
	Request  []string
	Allowed  bool
	Examined int
}

// Enforce evaluates request against every loaded policy row, reduces the
// per-row effects with the compiled reducer, and returns the decision. A
// cached result is returned when the same request vector was evaluated
// against the current policy rows before.
func (e *Engine) Enforce(ctx context.Context, request []string) (bool, error) {
	trace, err := e.EnforceWithTrace(ctx, request)
	if err != nil {
		return false, err
	}
	return trace.Allowed, nil
}

// EnforceWithTrace behaves like Enforce but also returns an EnforceTrace
// carrying a generated trace ID and the number of policy rows the matcher
// actually examined (0 on a cache hit).
func (e *Engine) EnforceWithTrace(ctx context.Context, request []string) (EnforceTrace, error) {
	id := uuid.NewString()
	rows := e.loadRows()
	key := cacheKey(request)

	if decision, ok := e.cache.get(key); ok {
		return EnforceTrace{ID: id, Request: request, Allowed: decision}, nil
	}

	effects := make([]effector.Effect, 0, len(rows))
	for _, row := range rows {
		ok, err := e.compiled.Eval(request, row.values)
		if err != nil {
			return EnforceTrace{}, fmt.Errorf("rbacguard: evaluating row %v: %w", row.values, err)
		}
		if !ok {
			effects = append(effects, effector.Indeterminate)
			continue
		}
		effects = append(effects, rowEffect(row))
	}

	allowed := e.reducer(effects)
	e.cache.put(key, allowed)

	e.logger.Debug("rbacguard: enforce", "trace_id", id, "request", joinForLog(request), "allowed", allowed, "examined", len(effects))
	return EnforceTrace{ID: id, Request: request, Allowed: allowed, Examined: len(effects)}, nil
}

// AddPolicy appends one p-section row under ptype, invalidates the decision
// cache, and notifies the configured Watcher.
func (e *Engine) AddPolicy(ctx context.Context, ptype string, rule []string) {
	e.rowsMu.Lock()
	defer e.rowsMu.Unlock()

	rows := e.loadRows()
	next := make([]policyRow, len(rows), len(rows)+1)
	copy(next, rows)
	next = append(next, policyRow{ptype: ptype, values: append([]string(nil), rule...)})
	e.rowsSnapshot.Store(next)
	e.cache.clear()

	if err := e.watcher.UpdateForAddPolicy("p", ptype, rule...); err != nil {
		e.logger.Warn("rbacguard: watcher notification failed", "op", "add_policy", "error", err)
	}
}

// RemovePolicy deletes the first p-section row under ptype matching rule
// exactly. Reports whether a row was removed.
func (e *Engine) RemovePolicy(ctx context.Context, ptype string, rule []string) bool {
	e.rowsMu.Lock()
	defer e.rowsMu.Unlock()

	rows := e.loadRows()
	idx := -1
	for i, row := range rows {
		if row.ptype == ptype && equalStrings(row.values, rule) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	next := make([]policyRow, 0, len(rows)-1)
	next = append(next, rows[:idx]...)
	next = append(next, rows[idx+1:]...)
	e.rowsSnapshot.Store(next)
	e.cache.clear()

	if err := e.watcher.UpdateForRemovePolicy("p", ptype, rule...); err != nil {
		e.logger.Warn("rbacguard: watcher notification failed", "op", "remove_policy", "error", err)
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// rowEffect reads the trailing "eft" column convention (a policy row whose
// last value is literally "deny" produces Deny, anything else that matched
// produces Allow), mirroring Casbin's p.eft default of "allow" when the
// model's policy definition has no explicit eft field.
func rowEffect(row policyRow) effector.Effect {
	if len(row.values) > 0 && row.values[len(row.values)-1] == "deny" {
		return effector.Deny
	}
	return effector.Allow
}

// RoleManager returns the named RoleManager (e.g. "g", "g2"), or nil if m
// declared no such role definition.
func (e *Engine) RoleManager(name string) *rolemgr.RoleManager {
	return e.roleManagers[name]
}

// Registry is a process-wide, name-keyed store of *Engine instances,
// modeled on a concurrent agent registry: a sync.RWMutex-guarded map with
// copy-on-read listing so callers can never observe a registry mutation
// mid-iteration.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]*Engine
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]*Engine)}
}

// Register publishes engine under name, replacing whatever was registered
// there before. Callers holding the previous *Engine keep running against
// it; nothing under the old Engine is mutated by this call.
func (r *Registry) Register(name string, engine *Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[name] = engine
}

// Unregister removes name from the registry. A no-op if name was never
// registered.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.engines, name)
}

// Get returns the Engine registered under name, or nil if none is.
func (r *Registry) Get(name string) *Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engines[name]
}

// List returns the registered names, in no particular order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	return names
}

// Reload builds a fresh Engine from m and adapter and atomically swaps it in
// under name. Callers that already hold the previous *Engine (from Get)
// keep evaluating against it; nothing is mutated underneath them.
func (r *Registry) Reload(ctx context.Context, name string, m *model.Model, adapter PolicyAdapter, opts ...Option) (*Engine, error) {
	engine, err := Build(ctx, m, adapter, opts...)
	if err != nil {
		return nil, fmt.Errorf("rbacguard: reloading %q: %w", name, err)
	}
	r.Register(name, engine)
	return engine, nil
}
