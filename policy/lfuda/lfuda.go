// Package lfuda implements Least-Frequently-Used with Dynamic Aging.
//
// The policy keeps an age, the priority of the most recent victim. New
// entries start at the current age rather than at 1, and a promoted entry's
// priority is age + weight*frequency, so entries that were hot long ago lose
// their advantage as the age climbs.
package lfuda

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/IvanBrykalov/freqcache/policy"
	"github.com/IvanBrykalov/freqcache/rbtree"
)

// BaseAge is the age of a fresh cache.
const BaseAge = 1

// ErrMismatch is wrapped by Validate errors.
var ErrMismatch = errors.New("lfuda: priority index out of sync with chain")

type lfudaPolicy struct{ weight uint64 }

// New returns a Policy factory. weight scales the access count in the
// promotion priority; values below 1 mean 1.
func New(weight uint64) policy.Policy {
	if weight < 1 {
		weight = 1
	}
	return lfudaPolicy{weight: weight}
}

// New implements policy.Policy.
func (p lfudaPolicy) New(h policy.Hooks) policy.ChainPolicy {
	return &lfuda{
		h:      h,
		weight: p.weight,
		age:    BaseAge,
		byPrio: rbtree.NewOrdered[uint64, policy.Bucket](),
	}
}

// lfuda maps priorities to buckets through a red-black tree because
// priorities along the chain are not contiguous.
type lfuda struct {
	h      policy.Hooks
	weight uint64
	age    uint64
	byPrio *rbtree.Tree[uint64, policy.Bucket]
}

// Admit returns the bucket at the current age.
func (p *lfuda) Admit() policy.Bucket { return p.bucketFor(p.age) }

// Promote returns the bucket at age + weight*freq.
func (p *lfuda) Promote(_ policy.Bucket, freq uint64) policy.Bucket {
	return p.bucketFor(p.priority(freq))
}

func (p *lfuda) OnRemoveBucket(b policy.Bucket) { p.byPrio.Remove(b.Priority()) }

// OnEvict raises the age to the victim's priority.
func (p *lfuda) OnEvict(priority uint64) { p.age = priority }

// Age returns the current aging floor.
func (p *lfuda) Age() uint64 { return p.age }

// Validate checks the tree and that it indexes exactly the chain's buckets.
func (p *lfuda) Validate() error {
	if err := p.byPrio.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrMismatch, err)
	}
	n := 0
	for b := p.h.Front(); b != nil; b = p.h.Next(b) {
		got, ok := p.byPrio.Lookup(b.Priority())
		if !ok {
			return fmt.Errorf("%w: bucket %d missing from index", ErrMismatch, b.Priority())
		}
		if got != b {
			return fmt.Errorf("%w: index maps %d to another bucket", ErrMismatch, b.Priority())
		}
		n++
	}
	if n != p.byPrio.Len() {
		return fmt.Errorf("%w: chain has %d buckets, index %d", ErrMismatch, n, p.byPrio.Len())
	}
	return nil
}

// priority computes age + weight*freq, saturating at math.MaxUint64 so a
// promoted entry never wraps below the age.
func (p *lfuda) priority(freq uint64) uint64 {
	hi, lo := bits.Mul64(p.weight, freq)
	if hi != 0 {
		return math.MaxUint64
	}
	sum, carry := bits.Add64(p.age, lo, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

// bucketFor finds the bucket with priority prio or links a new one after
// its closest lower neighbour.
func (p *lfuda) bucketFor(prio uint64) policy.Bucket {
	if b, ok := p.byPrio.Lookup(prio); ok {
		return b
	}
	var prev policy.Bucket
	if _, b, ok := p.byPrio.ClosestLeft(prio); ok {
		prev = b
	}
	b := p.h.InsertAfter(prev, prio)
	p.byPrio.Insert(prio, b)
	return b
}
