// Package sharded partitions keys over several cache.Cache instances, each
// guarded by its own mutex, so the cache can be shared between goroutines.
//
// Every shard is an independent LFU or LFU-DA cache with its own bucket
// chain, age and capacity share; frequency order is therefore per shard, not
// global. Fetch runs under the shard lock, which also makes concurrent misses
// on one key load it only once.
package sharded

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/IvanBrykalov/freqcache/cache"
	"github.com/IvanBrykalov/freqcache/internal/util"
	"github.com/IvanBrykalov/freqcache/policy"
)

// Options configures a sharded cache. Fields mirror cache.Options; the
// Metrics and OnEvict hooks are shared by all shards and may be called
// concurrently.
type Options[K comparable, V any] struct {
	// Capacity is the total entry limit. Shards get Capacity/Shards entries
	// each and the remainder goes one by one to the first shards, so the
	// shares add up to Capacity exactly.
	Capacity int

	// Shards defines the number of shards. If 0, an automatic value is chosen
	// (≈ 2*GOMAXPROCS); any value is rounded up to the next power of two,
	// then lowered to the largest power of two <= Capacity.
	Shards int

	Policy     policy.Policy
	Fetch      func(k K) V
	Hash       func(k K) uint64
	Equal      func(a, b K) bool
	LoadFactor float64

	OnEvict func(k K, v V, reason cache.EvictReason)
	Metrics cache.Metrics
	Logger  *slog.Logger
}

// Cache is safe for concurrent use by multiple goroutines.
type Cache[K comparable, V any] struct {
	shards []*shard[K, V]
	hash   func(K) uint64
	closed atomic.Bool

	metrics cache.Metrics

	// Totals across shards, fed by per-shard Size deltas.
	entries util.PaddedAtomicInt64
	buckets util.PaddedAtomicInt64
}

type shard[K comparable, V any] struct {
	mu sync.Mutex
	c  *cache.Cache[K, V]
	_  util.CacheLinePad
}

// New constructs a sharded cache.
// Defaults:
//   - nil Metrics -> cache.NoopMetrics
//   - nil Policy  -> LFU (per shard)
//   - nil Hash    -> FNV-1a
//   - Shards <= 0 -> auto, rounded up to the next power of two
//   - Shards > Capacity -> largest power of two <= Capacity
func New[K comparable, V any](opt Options[K, V]) *Cache[K, V] {
	if opt.Capacity <= 0 {
		panic("sharded: Capacity must be > 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = cache.NoopMetrics{}
	}
	if opt.Hash == nil {
		opt.Hash = util.Fnv64a[K]
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.DiscardHandler)
	}

	sh := opt.Shards
	if sh <= 0 {
		sh = util.ReasonableShardCount()
	} else {
		sh = int(util.NextPow2(uint64(sh)))
	}
	if sh > opt.Capacity {
		sh = int(util.PrevPow2(uint64(opt.Capacity)))
	}

	c := &Cache[K, V]{
		shards:  make([]*shard[K, V], sh),
		hash:    opt.Hash,
		metrics: opt.Metrics,
	}
	base, extra := opt.Capacity/sh, opt.Capacity%sh
	for i := range c.shards {
		capacity := base
		if i < extra {
			capacity++
		}
		c.shards[i] = &shard[K, V]{c: cache.New(cache.Options[K, V]{
			Capacity:   capacity,
			Policy:     opt.Policy,
			Fetch:      opt.Fetch,
			Hash:       opt.Hash,
			Equal:      opt.Equal,
			LoadFactor: opt.LoadFactor,
			OnEvict:    opt.OnEvict,
			Metrics:    &shardMetrics[K, V]{parent: c},
			Logger:     opt.Logger.With("shard", i),
		})}
	}
	return c
}

// Get returns the payload for k, fetching it on a miss (see cache.Cache.Get).
func (c *Cache[K, V]) Get(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	s := c.getShard(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Get(k)
}

// Touch records an access to k and reports whether it was resident.
func (c *Cache[K, V]) Touch(k K) bool {
	if c.closed.Load() {
		return false
	}
	s := c.getShard(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Touch(k)
}

// Peek returns the payload for k without counting an access.
func (c *Cache[K, V]) Peek(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	s := c.getShard(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Peek(k)
}

// Contains reports whether k is resident.
func (c *Cache[K, V]) Contains(k K) bool {
	if c.closed.Load() {
		return false
	}
	s := c.getShard(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Contains(k)
}

// Remove deletes k if present and returns true on success.
func (c *Cache[K, V]) Remove(k K) bool {
	if c.closed.Load() {
		return false
	}
	s := c.getShard(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Remove(k)
}

// Len returns the total number of resident entries across all shards.
func (c *Cache[K, V]) Len() int { return int(c.entries.Load()) }

// Shards returns the number of shards.
func (c *Cache[K, V]) Shards() int { return len(c.shards) }

// Hits returns the number of hits across all shards.
func (c *Cache[K, V]) Hits() uint64 {
	var total uint64
	for _, s := range c.shards {
		s.mu.Lock()
		total += s.c.Hits()
		s.mu.Unlock()
	}
	return total
}

// Stats sums the shard counters. Age is the highest shard age.
func (c *Cache[K, V]) Stats() cache.Stats {
	var st cache.Stats
	for _, s := range c.shards {
		s.mu.Lock()
		ss := s.c.Stats()
		s.mu.Unlock()

		st.Len += ss.Len
		st.Capacity += ss.Capacity
		st.Hits += ss.Hits
		st.Misses += ss.Misses
		st.Evictions += ss.Evictions
		st.Buckets += ss.Buckets
		st.Age = max(st.Age, ss.Age)
		st.Index.Size += ss.Index.Size
		st.Index.Used += ss.Index.Used
		st.Index.Collisions += ss.Index.Collisions
		st.Index.Inserts += ss.Index.Inserts
	}
	return st
}

// Validate checks every shard and joins the failures.
func (c *Cache[K, V]) Validate() error {
	var errs []error
	for i, s := range c.shards {
		s.mu.Lock()
		err := s.c.Validate()
		s.mu.Unlock()
		if err != nil {
			errs = append(errs, fmt.Errorf("shard %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every shard; OnEvict sees each resident entry with
// cache.EvictClose. Future operations are ignored.
func (c *Cache[K, V]) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	var errs []error
	for _, s := range c.shards {
		s.mu.Lock()
		errs = append(errs, s.c.Close())
		s.mu.Unlock()
	}
	return errors.Join(errs...)
}

// getShard picks a shard from the high half of the mixed key hash. Mixing
// keeps weak hashes (identity over small integers) from landing on shard 0.
func (c *Cache[K, V]) getShard(k K) *shard[K, V] {
	return c.shards[util.ShardIndex(util.Mix64(c.hash(k)), len(c.shards))]
}

// -------------------- metrics fan-in --------------------

// shardMetrics forwards one shard's signals to the shared Metrics and turns
// its Size reports into deltas on the cache-wide totals. Its methods run
// under the shard lock.
type shardMetrics[K comparable, V any] struct {
	parent           *Cache[K, V]
	entries, buckets int
}

func (m *shardMetrics[K, V]) Hit()                      { m.parent.metrics.Hit() }
func (m *shardMetrics[K, V]) Miss()                     { m.parent.metrics.Miss() }
func (m *shardMetrics[K, V]) Evict(r cache.EvictReason) { m.parent.metrics.Evict(r) }

func (m *shardMetrics[K, V]) Size(entries, buckets int) {
	te := m.parent.entries.Add(int64(entries - m.entries))
	tb := m.parent.buckets.Add(int64(buckets - m.buckets))
	m.entries, m.buckets = entries, buckets
	m.parent.metrics.Size(int(te), int(tb))
}
