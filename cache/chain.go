package cache

import "github.com/IvanBrykalov/freqcache/policy"

// -------------------- bucket chain --------------------

// insertBucketAfter links a new empty bucket after prev, or at the chain
// front when prev is nil.
func (c *Cache[K, V]) insertBucketAfter(prev *bucket[K], priority uint64) *bucket[K] {
	b := &bucket[K]{priority: priority, prev: prev}
	if prev == nil {
		b.next = c.front
		c.front = b
	} else {
		b.next = prev.next
		prev.next = b
	}
	if b.next != nil {
		b.next.prev = b
	} else {
		c.back = b
	}
	c.buckets++
	return b
}

// removeBucket unlinks an empty bucket after telling the policy.
func (c *Cache[K, V]) removeBucket(b *bucket[K]) {
	if b.n != 0 {
		panic("cache: removing a non-empty bucket")
	}
	c.pol.OnRemoveBucket(b)
	if b.prev != nil {
		b.prev.next = b.next
	} else {
		c.front = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	} else {
		c.back = b.prev
	}
	b.prev, b.next = nil, nil
	c.buckets--
}

// detach takes e off its bucket and drops the bucket if it became empty.
func (c *Cache[K, V]) detach(e *entry[K]) {
	b := e.bucket
	b.remove(e)
	if b.n == 0 {
		c.removeBucket(b)
	}
}

// -------------------- policy hooks --------------------

// chainHooks adapts the cache's bucket chain to policy.Hooks.
// Missing buckets are returned as untyped nil.
type chainHooks[K comparable, V any] struct{ c *Cache[K, V] }

func (h chainHooks[K, V]) Front() policy.Bucket {
	if h.c.front == nil {
		return nil
	}
	return h.c.front
}

func (h chainHooks[K, V]) Next(b policy.Bucket) policy.Bucket {
	if n := b.(*bucket[K]).next; n != nil {
		return n
	}
	return nil
}

func (h chainHooks[K, V]) InsertAfter(prev policy.Bucket, priority uint64) policy.Bucket {
	var p *bucket[K]
	if prev != nil {
		p = prev.(*bucket[K])
	}
	return h.c.insertBucketAfter(p, priority)
}
