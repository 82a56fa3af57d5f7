package cache

import (
	"iter"

	"github.com/IvanBrykalov/freqcache/hashindex"
	"github.com/IvanBrykalov/freqcache/policy"
)

// EntryInfo is a read-only view of one resident entry.
type EntryInfo[K comparable] struct {
	Key       K
	Frequency uint64 // accesses including the inserting one
	Priority  uint64 // priority of the entry's bucket
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64 // policy evictions only
	Buckets   int
	Age       uint64 // aging floor; 0 for policies without one
	Index     hashindex.Stat
}

// Stats returns the current counters.
func (c *Cache[K, V]) Stats() Stats {
	st := Stats{
		Len:       c.len,
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Buckets:   c.buckets,
		Index:     c.index.Stat(),
	}
	if a, ok := c.pol.(policy.Ager); ok {
		st.Age = a.Age()
	}
	return st
}

// Buckets yields each bucket's priority with its entries, lowest priority
// first and, within a bucket, most recently promoted first. The next victim
// is the last entry of the first bucket. The cache must not be modified
// during iteration.
func (c *Cache[K, V]) Buckets() iter.Seq2[uint64, []EntryInfo[K]] {
	return func(yield func(uint64, []EntryInfo[K]) bool) {
		for b := c.front; b != nil; b = b.next {
			es := make([]EntryInfo[K], 0, b.n)
			for e := b.head; e != nil; e = e.next {
				es = append(es, infoOf(e))
			}
			if !yield(b.priority, es) {
				return
			}
		}
	}
}

func infoOf[K comparable](e *entry[K]) EntryInfo[K] {
	return EntryInfo[K]{Key: e.key, Frequency: e.freq, Priority: e.bucket.priority}
}
