// Package hashindex implements a chained hash index whose entries all live on
// one global doubly linked list.
//
// The slot table only stores, per slot, a pointer to the first list node that
// hashes there and the number of such nodes. Nodes of one slot are kept
// contiguous on the list: the first node of a slot is appended to the back,
// every further node is linked right after the slot head. Lookup and removal
// therefore walk exactly the colliding nodes of one slot, and iteration never
// has to scan empty slots.
//
// An Index is not safe for concurrent use.
package hashindex

import (
	"iter"

	"github.com/IvanBrykalov/freqcache/internal/util"
)

// DefaultLoadFactor is the inserts/size ratio above which Insert grows the table.
const DefaultLoadFactor = 0.7

// Options configures an Index. Zero values are safe except Size:
//   - nil Hash       => FNV-1a over the key
//   - nil Equal      => ==
//   - LoadFactor <= 0 => DefaultLoadFactor
type Options[K comparable] struct {
	// Size is the initial number of slots; must be > 0.
	Size int
	// Hash maps a key to 64 bits. It must agree with Equal.
	Hash func(K) uint64
	// Equal reports key equality.
	Equal func(a, b K) bool
	// LoadFactor triggers growth to twice the size once inserts/size exceeds it.
	LoadFactor float64
	// NoResize pins the table size; only an explicit Resize changes it.
	NoResize bool
}

// Stat is a read-only snapshot of the table occupancy.
// Used + Collisions == Inserts always holds.
type Stat struct {
	Size       int // slots in the table
	Used       int // slots holding at least one entry
	Collisions int // entries that share a slot with an earlier entry
	Inserts    int // resident entries
}

type node[K comparable, V any] struct {
	key        K
	val        V
	hash       uint64
	prev, next *node[K, V]
}

type slot[K comparable, V any] struct {
	head *node[K, V]
	n    int
}

// Index maps keys to values in O(1) amortized time.
type Index[K comparable, V any] struct {
	slots      []slot[K, V]
	head, tail *node[K, V]

	used       int
	collisions int
	inserts    int

	hash       func(K) uint64
	equal      func(a, b K) bool
	loadFactor float64
	noResize   bool
}

// New builds an Index with opt.Size slots.
func New[K comparable, V any](opt Options[K]) *Index[K, V] {
	if opt.Size <= 0 {
		panic("hashindex: Size must be > 0")
	}
	if opt.Hash == nil {
		opt.Hash = util.Fnv64a[K]
	}
	if opt.Equal == nil {
		opt.Equal = func(a, b K) bool { return a == b }
	}
	if opt.LoadFactor <= 0 {
		opt.LoadFactor = DefaultLoadFactor
	}
	return &Index[K, V]{
		slots:      make([]slot[K, V], opt.Size),
		hash:       opt.Hash,
		equal:      opt.Equal,
		loadFactor: opt.LoadFactor,
		noResize:   opt.NoResize,
	}
}

// Insert stores k→v. The key must be absent: Insert does not look for it.
func (x *Index[K, V]) Insert(k K, v V) {
	if !x.noResize && float64(x.inserts)/float64(len(x.slots)) > x.loadFactor {
		x.Resize(2 * len(x.slots))
	}
	x.link(&node[K, V]{key: k, val: v, hash: x.hash(k)})
}

// Lookup returns the value stored for k.
func (x *Index[K, V]) Lookup(k K) (V, bool) {
	if n := x.find(k); n != nil {
		return n.val, true
	}
	var zero V
	return zero, false
}

// Remove deletes k and returns the value it mapped to.
func (x *Index[K, V]) Remove(k K) (V, bool) {
	n := x.find(k)
	if n == nil {
		var zero V
		return zero, false
	}
	x.unlink(n)
	return n.val, true
}

// Resize rebuilds the table with size slots. Entries are relinked, not
// copied, in their current list order. size <= 0 panics.
func (x *Index[K, V]) Resize(size int) {
	if size <= 0 {
		panic("hashindex: Resize size must be > 0")
	}
	n := x.head
	x.slots = make([]slot[K, V], size)
	x.head, x.tail = nil, nil
	x.used, x.collisions, x.inserts = 0, 0, 0
	for n != nil {
		next := n.next
		x.link(n)
		n = next
	}
}

// Stat reports the current occupancy.
func (x *Index[K, V]) Stat() Stat {
	return Stat{Size: len(x.slots), Used: x.used, Collisions: x.collisions, Inserts: x.inserts}
}

// Len returns the number of resident entries.
func (x *Index[K, V]) Len() int { return x.inserts }

// All yields every entry in list order. The index must not be modified
// during iteration.
func (x *Index[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for n := x.head; n != nil; n = n.next {
			if !yield(n.key, n.val) {
				return
			}
		}
	}
}

func (x *Index[K, V]) slotOf(h uint64) *slot[K, V] {
	return &x.slots[h%uint64(len(x.slots))]
}

func (x *Index[K, V]) find(k K) *node[K, V] {
	h := x.hash(k)
	s := x.slotOf(h)
	n := s.head
	for i := 0; i < s.n; i++ {
		if n.hash == h && x.equal(n.key, k) {
			return n
		}
		n = n.next
	}
	return nil
}

func (x *Index[K, V]) link(n *node[K, V]) {
	s := x.slotOf(n.hash)
	if s.n == 0 {
		n.prev, n.next = x.tail, nil
		if x.tail != nil {
			x.tail.next = n
		} else {
			x.head = n
		}
		x.tail = n
		s.head = n
		x.used++
	} else {
		// after the slot head, newest first
		h := s.head
		n.prev, n.next = h, h.next
		if h.next != nil {
			h.next.prev = n
		} else {
			x.tail = n
		}
		h.next = n
		x.collisions++
	}
	s.n++
	x.inserts++
}

func (x *Index[K, V]) unlink(n *node[K, V]) {
	s := x.slotOf(n.hash)
	if s.head == n {
		if s.n > 1 {
			s.head = n.next
		} else {
			s.head = nil
		}
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		x.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		x.tail = n.prev
	}
	n.prev, n.next = nil, nil
	s.n--
	if s.n > 0 {
		x.collisions--
	} else {
		x.used--
	}
	x.inserts--
}
