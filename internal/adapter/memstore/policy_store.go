// Package memstore is an in-memory rbacguard.PolicyAdapter: a
// sync.RWMutex-guarded map of policy rows, good for embedding and tests
// where no on-disk policy file is wanted.
package memstore

import (
	"context"
	"sync"

	"github.com/sentinelgate/rbacguard/internal/rbacguard"
)

// Store holds policy rows keyed by ptype ("p", "p2", "g", "g2", ...).
// Thread-safe for concurrent access; every read and write copies rows in or
// out so a caller can never mutate Store state by holding onto a slice it
// was handed.
type Store struct {
	mu   sync.RWMutex
	rows map[string][]rbacguard.PolicyRow
}

// New creates an empty Store.
func New() *Store {
	return &Store{rows: make(map[string][]rbacguard.PolicyRow)}
}

// LoadPolicy returns every row the store holds, across all ptypes. Order
// within a ptype matches insertion order; order across ptypes is
// unspecified.
func (s *Store) LoadPolicy(ctx context.Context) ([]rbacguard.PolicyRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []rbacguard.PolicyRow
	for _, rows := range s.rows {
		for _, r := range rows {
			out = append(out, copyRow(r))
		}
	}
	return out, nil
}

// SavePolicy replaces the store's entire contents with rows, grouped by
// ptype.
func (s *Store) SavePolicy(ctx context.Context, rows []rbacguard.PolicyRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string][]rbacguard.PolicyRow)
	for _, r := range rows {
		next[r.PType] = append(next[r.PType], copyRow(r))
	}
	s.rows = next
	return nil
}

// AddPolicy appends one row under ptype. Duplicate rows are not rejected;
// callers wanting set semantics should check first via LoadPolicy.
func (s *Store) AddPolicy(section, ptype string, values []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[ptype] = append(s.rows[ptype], rbacguard.PolicyRow{
		Section: section,
		PType:   ptype,
		Values:  append([]string(nil), values...),
	})
}

// RemovePolicy deletes the first row under ptype whose values match exactly.
// Reports whether a row was removed.
func (s *Store) RemovePolicy(section, ptype string, values []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.rows[ptype]
	for i, r := range rows {
		if r.Section == section && equalValues(r.Values, values) {
			s.rows[ptype] = append(rows[:i:i], rows[i+1:]...)
			return true
		}
	}
	return false
}

func copyRow(r rbacguard.PolicyRow) rbacguard.PolicyRow {
	return rbacguard.PolicyRow{
		Section: r.Section,
		PType:   r.PType,
		Values:  append([]string(nil), r.Values...),
	}
}

func equalValues(a, b []string) bool {
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

var (
	_ rbacguard.PolicyAdapter       = (*Store)(nil)
	_ rbacguard.SavingPolicyAdapter = (*Store)(nil)
)
