// Package lfu implements the Least-Frequently-Used eviction policy.
package lfu

import "github.com/IvanBrykalov/freqcache/policy"

// lfu uses the access count as priority. Counts grow by one per access, so
// the bucket a promoted entry moves to is always its current bucket's
// neighbour, found or created in O(1).
type lfu struct {
	h policy.Hooks
}

type lfuPolicy struct{}

// New returns a Policy factory that constructs cache-local LFU instances.
func New() policy.Policy { return lfuPolicy{} }

// New implements policy.Policy.
func (lfuPolicy) New(h policy.Hooks) policy.ChainPolicy { return &lfu{h: h} }

// Admit places new entries in the priority-1 bucket at the chain front.
func (p *lfu) Admit() policy.Bucket {
	if b := p.h.Front(); b != nil && b.Priority() == 1 {
		return b
	}
	return p.h.InsertAfter(nil, 1)
}

// Promote returns the bucket with priority freq, right after cur.
func (p *lfu) Promote(cur policy.Bucket, freq uint64) policy.Bucket {
	if next := p.h.Next(cur); next != nil && next.Priority() == freq {
		return next
	}
	return p.h.InsertAfter(cur, freq)
}

func (p *lfu) OnRemoveBucket(policy.Bucket) {}
func (p *lfu) OnEvict(uint64)               {}
