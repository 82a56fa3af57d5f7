// Package policy defines how an eviction policy chooses buckets on the cache's
// frequency chain.
//
// The cache keeps resident entries grouped in buckets, one bucket per distinct
// priority value, chained in ascending priority order. The cache owns the chain
// and performs all list surgery; a policy only decides which bucket a new or
// promoted entry belongs to, asking the cache through Hooks to navigate or
// extend the chain. Victims are always taken from the front (lowest priority)
// bucket, so policies never pick them.
package policy

// Bucket is a chain element as seen by a policy.
type Bucket interface {
	Priority() uint64
}

// Hooks expose the cache's bucket chain to a policy.
// Implementations are provided by the cache.
//
// Methods return an untyped nil when there is no bucket.
type Hooks interface {
	// Front returns the lowest-priority bucket.
	Front() Bucket
	// Next returns the bucket following b.
	Next(b Bucket) Bucket
	// InsertAfter creates an empty bucket with the given priority right after
	// prev, or at the front of the chain when prev is nil. The caller must
	// keep the chain sorted.
	InsertAfter(prev Bucket, priority uint64) Bucket
}

// ChainPolicy is a cache-local policy instance bound to cache hooks.
//
// Semantics:
//   - Admit returns the bucket for a newly inserted entry.
//   - Promote returns the bucket for an entry that was just accessed and now
//     has access count freq. cur is the entry's current bucket; it may become
//     empty and be removed right after Promote returns.
//   - OnRemoveBucket is called before the cache unlinks an emptied bucket.
//   - OnEvict receives the priority of each policy victim.
type ChainPolicy interface {
	Admit() Bucket
	Promote(cur Bucket, freq uint64) Bucket
	OnRemoveBucket(b Bucket)
	OnEvict(priority uint64)
}

// Policy is a factory that creates cache-local policy instances bound to a
// particular cache's hooks.
type Policy interface {
	New(Hooks) ChainPolicy
}

// Ager is implemented by policies that keep an aging floor.
type Ager interface {
	Age() uint64
}

// Validator is implemented by policies that keep their own index of the
// chain and can check it.
type Validator interface {
	Validate() error
}
