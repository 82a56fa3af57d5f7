package cache

import (
	"context"
	"log/slog"

	"github.com/IvanBrykalov/freqcache/hashindex"
	"github.com/IvanBrykalov/freqcache/policy"
	"github.com/IvanBrykalov/freqcache/policy/lfu"
)

// Cache is a fixed-capacity read-through cache with frequency based eviction.
// It is not safe for concurrent use; see package sharded for a locked,
// partitioned wrapper.
type Cache[K comparable, V any] struct {
	capacity int
	len      int

	index       *hashindex.Index[K, *entry[K]]
	front, back *bucket[K] // lowest and highest priority
	buckets     int

	// Slot arena; nil in tracking mode. Slots below next have been handed
	// out at least once, free holds the ones returned by Remove.
	slots []V
	next  int
	free  []int

	pol policy.ChainPolicy
	opt Options[K, V]
	log *slog.Logger

	hits, misses, evictions uint64
	closed                  bool
}

// New constructs a cache with the provided Options.
// Defaults:
//   - nil Metrics -> NoopMetrics
//   - nil Policy  -> LFU
//   - nil Logger  -> discard
func New[K comparable, V any](opt Options[K, V]) *Cache[K, V] {
	if opt.Capacity <= 0 {
		panic("cache: Capacity must be > 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Policy == nil {
		opt.Policy = lfu.New()
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.DiscardHandler)
	}

	c := &Cache[K, V]{
		capacity: opt.Capacity,
		index: hashindex.New[K, *entry[K]](hashindex.Options[K]{
			Size:       2 * opt.Capacity,
			Hash:       opt.Hash,
			Equal:      opt.Equal,
			LoadFactor: opt.LoadFactor,
		}),
		opt: opt,
		log: opt.Logger,
	}
	if opt.Fetch != nil {
		c.slots = make([]V, opt.Capacity)
	}
	c.pol = opt.Policy.New(chainHooks[K, V]{c: c})
	return c
}

// Get returns the payload for k, fetching it on a miss and evicting the
// least valuable entry when the cache is full. The entry's access count is
// bumped either way. ok is false only in tracking mode or after Close.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	e, _ := c.access(k)
	if e == nil || c.slots == nil {
		var zero V
		return zero, false
	}
	return c.slots[e.slot], true
}

// Touch records an access to k like Get and reports whether k was resident.
// It is the natural entry point in tracking mode.
func (c *Cache[K, V]) Touch(k K) bool {
	_, hit := c.access(k)
	return hit
}

// Peek returns the payload for k without counting an access.
func (c *Cache[K, V]) Peek(k K) (V, bool) {
	if c.closed || c.slots == nil {
		var zero V
		return zero, false
	}
	e, ok := c.index.Lookup(k)
	if !ok {
		var zero V
		return zero, false
	}
	return c.slots[e.slot], true
}

// Entry describes the resident entry for k without counting an access.
func (c *Cache[K, V]) Entry(k K) (EntryInfo[K], bool) {
	if c.closed {
		return EntryInfo[K]{}, false
	}
	e, ok := c.index.Lookup(k)
	if !ok {
		return EntryInfo[K]{}, false
	}
	return infoOf(e), true
}

// Contains reports whether k is resident.
func (c *Cache[K, V]) Contains(k K) bool {
	if c.closed {
		return false
	}
	_, ok := c.index.Lookup(k)
	return ok
}

// Remove deletes k if present and returns true on success. The entry's slot
// is reused by a later insert. Removal does not move the LFU-DA age.
func (c *Cache[K, V]) Remove(k K) bool {
	if c.closed {
		return false
	}
	e, ok := c.index.Remove(k)
	if !ok {
		return false
	}
	c.detach(e)
	c.len--
	v := c.release(e)
	if e.slot >= 0 {
		c.free = append(c.free, e.slot)
	}
	c.notifyEvict(e, v, EvictRemove)
	c.opt.Metrics.Size(c.len, c.buckets)
	return true
}

// Len returns the number of resident entries.
func (c *Cache[K, V]) Len() int { return c.len }

// Cap returns the configured capacity.
func (c *Cache[K, V]) Cap() int { return c.capacity }

// Hits returns the number of accesses that found their key resident.
func (c *Cache[K, V]) Hits() uint64 { return c.hits }

// Close drops every entry, reporting each one to OnEvict with EvictClose.
// Future operations are ignored. Close is idempotent and returns nil.
func (c *Cache[K, V]) Close() error {
	if c.closed {
		return nil
	}
	dropped := c.len
	for b := c.front; b != nil; b = b.next {
		for e := b.head; e != nil; e = e.next {
			c.notifyEvict(e, c.release(e), EvictClose)
		}
	}
	c.closed = true
	c.front, c.back = nil, nil
	c.index = hashindex.New[K, *entry[K]](hashindex.Options[K]{Size: 1, Hash: c.opt.Hash, Equal: c.opt.Equal})
	c.slots, c.free = nil, nil
	c.len, c.buckets = 0, 0
	c.opt.Metrics.Size(0, 0)
	c.log.Debug("cache closed", "dropped", dropped, "hits", c.hits, "evictions", c.evictions)
	return nil
}

// -------------------- internals --------------------

// access runs the shared Get/Touch path. It returns the entry now holding
// k and whether k was already resident.
func (c *Cache[K, V]) access(k K) (*entry[K], bool) {
	if c.closed {
		return nil, false
	}
	if e, ok := c.index.Lookup(k); ok {
		c.promote(e)
		c.hits++
		c.opt.Metrics.Hit()
		return e, true
	}
	c.misses++
	c.opt.Metrics.Miss()
	return c.insert(k), false
}

// promote moves e to the bucket the policy picks for its new access count.
func (c *Cache[K, V]) promote(e *entry[K]) {
	old := e.bucket
	old.remove(e)
	e.freq++
	nb := c.pol.Promote(old, e.freq).(*bucket[K])
	// old stays linked until the policy has used it as a position hint.
	if old.n == 0 && old != nb {
		c.removeBucket(old)
	}
	nb.pushFront(e)
}

// insert admits k, evicting the victim first when the cache is full.
func (c *Cache[K, V]) insert(k K) *entry[K] {
	var v V
	if c.opt.Fetch != nil {
		v = c.opt.Fetch(k)
	}

	var slot int
	if c.len >= c.capacity {
		slot = c.evict()
	} else {
		slot = c.claimSlot()
	}
	if slot >= 0 {
		c.slots[slot] = v
	}

	e := &entry[K]{key: k, freq: 1, slot: slot}
	c.pol.Admit().(*bucket[K]).pushFront(e)
	c.index.Insert(k, e)
	c.len++
	c.opt.Metrics.Size(c.len, c.buckets)
	return e
}

// evict drops the least recently promoted entry of the lowest bucket and
// returns its slot for reuse.
func (c *Cache[K, V]) evict() int {
	b := c.front
	if b == nil {
		panic("cache: evict on empty chain")
	}
	e := b.tail
	priority := b.priority
	c.index.Remove(e.key)
	c.detach(e)
	c.len--
	c.pol.OnEvict(priority)
	c.evictions++

	v := c.release(e)
	if c.log.Enabled(context.Background(), slog.LevelDebug) {
		c.log.Debug("evict", "key", e.key, "priority", priority, "frequency", e.freq)
	}
	c.notifyEvict(e, v, EvictPolicy)
	return e.slot
}

// claimSlot returns an unused slot, preferring ones freed by Remove.
// -1 in tracking mode.
func (c *Cache[K, V]) claimSlot() int {
	if c.slots == nil {
		return -1
	}
	if n := len(c.free); n > 0 {
		s := c.free[n-1]
		c.free = c.free[:n-1]
		return s
	}
	s := c.next
	c.next++
	return s
}

// release returns e's payload and clears the slot so the arena does not pin it.
func (c *Cache[K, V]) release(e *entry[K]) V {
	var zero V
	if e.slot < 0 || c.slots == nil {
		return zero
	}
	v := c.slots[e.slot]
	c.slots[e.slot] = zero
	return v
}

func (c *Cache[K, V]) notifyEvict(e *entry[K], v V, reason EvictReason) {
	c.opt.Metrics.Evict(reason)
	if cb := c.opt.OnEvict; cb != nil {
		cb(e.key, v, reason)
	}
}
