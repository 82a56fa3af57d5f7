package cache

import (
	"fmt"

	"github.com/IvanBrykalov/freqcache/policy"
)

type constError string

func (e constError) Error() string { return string(e) }

// ErrCorrupt is wrapped by every error returned from Validate.
const ErrCorrupt = constError("cache: corrupt state")

// Validate walks the whole cache and reports the first broken invariant:
// ascending non-empty buckets, consistent links and back references, one
// index mapping per entry, distinct slots, occupancy within capacity, and
// the policy's own bookkeeping. It is O(n) and meant for tests and
// debugging.
func (c *Cache[K, V]) Validate() error {
	if c.len > c.capacity {
		return fmt.Errorf("%w: %d entries exceed capacity %d", ErrCorrupt, c.len, c.capacity)
	}

	var (
		entries int
		buckets int
		prev    *bucket[K]
		slots   = make(map[int]struct{}, c.len)
	)
	for b := c.front; b != nil; prev, b = b, b.next {
		buckets++
		if b.prev != prev {
			return fmt.Errorf("%w: bucket %d has a stale prev link", ErrCorrupt, b.priority)
		}
		if prev != nil && prev.priority >= b.priority {
			return fmt.Errorf("%w: bucket %d follows bucket %d", ErrCorrupt, b.priority, prev.priority)
		}
		if b.n == 0 || b.head == nil {
			return fmt.Errorf("%w: empty bucket %d left on the chain", ErrCorrupt, b.priority)
		}

		n := 0
		var pe *entry[K]
		for e := b.head; e != nil; pe, e = e, e.next {
			n++
			if e.bucket != b {
				return fmt.Errorf("%w: entry %v points to the wrong bucket", ErrCorrupt, e.key)
			}
			if e.prev != pe {
				return fmt.Errorf("%w: entry %v has a stale prev link", ErrCorrupt, e.key)
			}
			if e.freq == 0 {
				return fmt.Errorf("%w: entry %v has zero frequency", ErrCorrupt, e.key)
			}
			if got, ok := c.index.Lookup(e.key); !ok || got != e {
				return fmt.Errorf("%w: entry %v is not indexed", ErrCorrupt, e.key)
			}
			if c.slots != nil {
				if e.slot < 0 || e.slot >= len(c.slots) {
					return fmt.Errorf("%w: entry %v has slot %d out of range", ErrCorrupt, e.key, e.slot)
				}
				if _, dup := slots[e.slot]; dup {
					return fmt.Errorf("%w: slot %d used twice", ErrCorrupt, e.slot)
				}
				slots[e.slot] = struct{}{}
			}
		}
		if b.tail != pe {
			return fmt.Errorf("%w: bucket %d has a stale tail", ErrCorrupt, b.priority)
		}
		if n != b.n {
			return fmt.Errorf("%w: bucket %d counts %d entries, holds %d", ErrCorrupt, b.priority, b.n, n)
		}
		entries += n
	}
	if c.back != prev {
		return fmt.Errorf("%w: stale chain back", ErrCorrupt)
	}
	if buckets != c.buckets {
		return fmt.Errorf("%w: counted %d buckets, recorded %d", ErrCorrupt, buckets, c.buckets)
	}
	if entries != c.len || c.index.Len() != c.len {
		return fmt.Errorf("%w: %d entries on chain, %d indexed, len %d", ErrCorrupt, entries, c.index.Len(), c.len)
	}
	for _, s := range c.free {
		if _, used := slots[s]; used {
			return fmt.Errorf("%w: free slot %d is in use", ErrCorrupt, s)
		}
	}
	if v, ok := c.pol.(policy.Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
	}
	return nil
}
