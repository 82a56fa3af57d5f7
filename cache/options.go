package cache

import (
	"log/slog"

	"github.com/IvanBrykalov/freqcache/policy"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictPolicy: chosen as victim to admit a new entry at full capacity.
	EvictPolicy EvictReason = iota
	// EvictRemove: deleted by an explicit Remove.
	EvictRemove
	// EvictClose: dropped by Close.
	EvictClose
)

func (r EvictReason) String() string {
	switch r {
	case EvictPolicy:
		return "policy"
	case EvictRemove:
		return "remove"
	case EvictClose:
		return "close"
	default:
		return "unknown"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	// Size reports resident entries and live buckets after each change.
	Size(entries, buckets int)
}

// Options configures the cache behavior. Zero values are safe except
// Capacity; sane defaults are applied in New():
//   - nil Policy  => LFU
//   - nil Fetch   => tracking mode
//   - nil Metrics => NoopMetrics
//   - nil Logger  => discard
type Options[K comparable, V any] struct {
	// Capacity is the number of entries the cache holds; must be > 0.
	Capacity int

	// Policy selects buckets for new and promoted entries (lfu, lfuda).
	Policy policy.Policy

	// Fetch produces the payload for a missing key. It runs synchronously
	// inside Get. Without Fetch the cache stores no payloads and only tracks
	// access frequencies.
	Fetch func(k K) V

	// Key hashing for the index. Hash must agree with Equal.
	// nil Hash => FNV-1a over the key, nil Equal => ==.
	Hash  func(k K) uint64
	Equal func(a, b K) bool

	// LoadFactor of the key index; <= 0 means hashindex.DefaultLoadFactor.
	LoadFactor float64

	// Observability
	// OnEvict is called for every entry that leaves the cache.
	OnEvict func(k K, v V, reason EvictReason)
	Metrics Metrics
	Logger  *slog.Logger
}
