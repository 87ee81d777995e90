package rolemgr

// roleState is the immutable snapshot swapped atomically on every write.
// forward[subject][domain] holds the "to" set reachable from subject in one
// hop within domain; reverse[role][domain] is the symmetric "from" set.
// Mutating a roleState in place is forbidden after it has been published.
// Every writer builds a new roleState (copy-on-write over only the touched
// buckets) and stores it, mirroring the atomic.Value-snapshot-plus-writer-
// mutex shape the coordinator uses for published configuration snapshots.
type roleState struct {
	forward map[string]map[string][]string
	reverse map[string]map[string][]string

	roleMatcher   MatchFunc
	domainMatcher MatchFunc
}

// MatchFunc is a pluggable equality predicate, used in place of "==" when
// comparing role names or domain names during traversal.
type MatchFunc func(candidate, target string) bool

func emptyState() *roleState {
	return &roleState{
		forward: map[string]map[string][]string{},
		reverse: map[string]map[string][]string{},
	}
}

// withMatchers returns a shallow copy of s with the matcher predicates
// replaced. The edge indexes are shared (not copied) since matcher-only
// changes never touch them.
func (s *roleState) withMatchers(role, domain MatchFunc) *roleState {
	return &roleState{
		forward:       s.forward,
		reverse:       s.reverse,
		roleMatcher:   role,
		domainMatcher: domain,
	}
}

// cleared returns a new roleState with empty indexes but the same matcher
// predicates: clearing the graph never forgets an installed matching
// function.
func (s *roleState) cleared() *roleState {
	return &roleState{
		forward:       map[string]map[string][]string{},
		reverse:       map[string]map[string][]string{},
		roleMatcher:   s.roleMatcher,
		domainMatcher: s.domainMatcher,
	}
}

// withEdge returns a new roleState with the (from, to, domain) edge added to
// both indexes, copy-on-write over only the touched subject/role buckets. It
// reports added=false, returning s itself, if the edge is already present
// (caller treats as a no-op).
func (s *roleState) withEdge(from, to, domain string) (next *roleState, added bool) {
	if containsEdge(s.forward, from, domain, to) {
		return s, false
	}

	next = &roleState{
		forward:       copyOuterExcept(s.forward, from),
		reverse:       copyOuterExcept(s.reverse, to),
		roleMatcher:   s.roleMatcher,
		domainMatcher: s.domainMatcher,
	}
	next.forward[from] = insertInto(s.forward[from], domain, to)
	next.reverse[to] = insertInto(s.reverse[to], domain, from)
	return next, true
}

// withoutEdge returns a new roleState with the (from, to, domain) edge
// removed from both indexes. Removing an absent edge is a no-op and returns
// the same state; it is not treated as an error.
func (s *roleState) withoutEdge(from, to, domain string) *roleState {
	if !containsEdge(s.forward, from, domain, to) {
		return s
	}

	next := &roleState{
		forward:       copyOuterExcept(s.forward, from),
		reverse:       copyOuterExcept(s.reverse, to),
		roleMatcher:   s.roleMatcher,
		domainMatcher: s.domainMatcher,
	}
	next.forward[from] = removeFrom(s.forward[from], domain, to)
	next.reverse[to] = removeFrom(s.reverse[to], domain, from)
	return next
}

// copyOuterExcept copies the outer map one level deep, so the caller can
// freely replace the inner map at key without mutating the original.
func copyOuterExcept(m map[string]map[string][]string, key string) map[string]map[string][]string {
	out := make(map[string]map[string][]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	delete(out, key)
	return out
}

// insertInto returns a copy of inner with value appended under domain. It
// does not deduplicate; withEdge checks for an existing edge first.
func insertInto(inner map[string][]string, domain, value string) map[string][]string {
	out := make(map[string][]string, len(inner)+1)
	for k, v := range inner {
		out[k] = v
	}
	existing := out[domain]
	next := make([]string, len(existing), len(existing)+1)
	copy(next, existing)
	out[domain] = append(next, value)
	return out
}

// removeFrom returns a copy of inner with value removed from domain's list.
func removeFrom(inner map[string][]string, domain, value string) map[string][]string {
	out := make(map[string][]string, len(inner))
	for k, v := range inner {
		out[k] = v
	}
	existing := out[domain]
	next := make([]string, 0, len(existing))
	for _, v := range existing {
		if v != value {
			next = append(next, v)
		}
	}
	if len(next) == 0 {
		delete(out, domain)
	} else {
		out[domain] = next
	}
	return out
}

func containsEdge(index map[string]map[string][]string, subject, domain, value string) bool {
	for _, v := range index[subject][domain] {
		if v == value {
			return true
		}
	}
	return false
}
