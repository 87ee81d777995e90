package rbacguard

import "context"

// PolicyRow is one line of a loaded policy: its section ("p" or "g"), its
// ptype (e.g. "p", "p2", "g", "g2"), and its raw values.
type PolicyRow struct {
	Section string
	PType   string
	Values  []string
}

// PolicyAdapter is the consumed collaborator that performs a batched load of
// policy rows. A persistent, database-backed adapter is outside this
// package's scope; only the interface shape is specified here, along with
// an in-memory and a file-backed implementation good enough for embedding
// and tests (internal/adapter/memstore, internal/adapter/fileadapter).
type PolicyAdapter interface {
	// LoadPolicy returns every row the adapter holds. g-section rows are
	// routed by the coordinator to the matching RoleManager's AddLink;
	// p-section rows become the Engine's enforcement candidates.
	LoadPolicy(ctx context.Context) ([]PolicyRow, error)
}

// SavingPolicyAdapter is an optional capability: an adapter that can persist
// rows back out. Not every adapter supports this (a read-only CSV snapshot,
// for instance); callers should type-assert for it.
type SavingPolicyAdapter interface {
	PolicyAdapter
	SavePolicy(ctx context.Context, rows []PolicyRow) error
}
