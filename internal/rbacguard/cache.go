package rbacguard

import (
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// cacheEntry is a doubly-linked list node for the LRU decision cache.
type cacheEntry struct {
	key      uint64
	decision bool
	prev     *cacheEntry
	next     *cacheEntry
}

// resultCache bounds the number of cached Enforce decisions with LRU
// eviction. Keys are a hash of the request vector alone; the cache is
// cleared on every policy mutation, and a Reload builds a new Engine with a
// new cache.
type resultCache struct {
	mu      sync.Mutex
	entries map[uint64]*cacheEntry
	head    *cacheEntry
	tail    *cacheEntry
	maxSize int
}

func newResultCache(maxSize int) *resultCache {
	return &resultCache{
		entries: make(map[uint64]*cacheEntry, maxSize),
		maxSize: maxSize,
	}
}

func (c *resultCache) get(key uint64) (bool, bool) {
	if c == nil || c.maxSize <= 0 {
		return false, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.moveToHeadLocked(e)
		return e.decision, true
	}
	return false, false
}

func (c *resultCache) put(key uint64, decision bool) {
	if c == nil || c.maxSize <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.decision = decision
		c.moveToHeadLocked(e)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictTailLocked()
	}

	e := &cacheEntry{key: key, decision: decision}
	c.entries[key] = e
	c.pushHeadLocked(e)
}

func (c *resultCache) clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*cacheEntry, c.maxSize)
	c.head = nil
	c.tail = nil
}

func (c *resultCache) moveToHeadLocked(e *cacheEntry) {
	if c.head == e {
		return
	}
	c.unlinkLocked(e)
	c.pushHeadLocked(e)
}

func (c *resultCache) pushHeadLocked(e *cacheEntry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *resultCache) unlinkLocked(e *cacheEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

func (c *resultCache) evictTailLocked() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlinkLocked(c.tail)
}

// cacheKey hashes a request vector into a decision-cache key. The cache is
// cleared on every policy mutation (see Engine.AddPolicy/RemovePolicy), so a
// stale key can never outlive the rows it was computed against.
func cacheKey(request []string) uint64 {
	h := xxhash.New()
	for _, v := range request {
		_, _ = h.WriteString(v)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// joinForLog renders a request vector as one comma-separated string, with
// every value included unchanged; callers pass this as a single attribute
// value.
func joinForLog(values []string) string {
	return strings.Join(values, ",")
}
