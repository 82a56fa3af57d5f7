// Package rbtree implements a generic red-black tree ordered by a caller
// supplied comparison.
//
// Besides exact lookups the tree answers nearest-neighbour queries
// (ClosestLeft, ClosestRight), which is what the LFU-DA policy needs to find
// the bucket preceding a new priority value.
//
// A Tree is not safe for concurrent use.
package rbtree

import (
	"cmp"
	"iter"
)

type color bool

const (
	red   color = false
	black color = true
)

type node[K, V any] struct {
	key                 K
	val                 V
	left, right, parent *node[K, V]
	color               color
}

// Tree is an ordered map from K to V. Keys are unique.
type Tree[K, V any] struct {
	root    *node[K, V]
	n       int
	compare func(a, b K) int
}

// New returns an empty tree ordered by compare, which must return a negative
// number, zero or a positive number like cmp.Compare.
func New[K, V any](compare func(a, b K) int) *Tree[K, V] {
	if compare == nil {
		panic("rbtree: nil compare")
	}
	return &Tree[K, V]{compare: compare}
}

// NewOrdered returns an empty tree using the natural order of K.
func NewOrdered[K cmp.Ordered, V any]() *Tree[K, V] {
	return New[K, V](cmp.Compare[K])
}

// Len returns the number of keys in the tree.
func (t *Tree[K, V]) Len() int { return t.n }

// Insert adds k→v. It returns false and leaves the tree unchanged when k is
// already present.
func (t *Tree[K, V]) Insert(k K, v V) bool {
	var parent *node[K, V]
	cur := t.root
	c := 0
	for cur != nil {
		parent = cur
		c = t.compare(k, cur.key)
		switch {
		case c == 0:
			return false
		case c < 0:
			cur = cur.left
		default:
			cur = cur.right
		}
	}

	n := &node[K, V]{key: k, val: v, parent: parent, color: red}
	switch {
	case parent == nil:
		t.root = n
	case c < 0:
		parent.left = n
	default:
		parent.right = n
	}
	t.n++
	t.insertFixup(n)
	return true
}

// Lookup returns the value stored under k.
func (t *Tree[K, V]) Lookup(k K) (V, bool) {
	if n := t.find(k); n != nil {
		return n.val, true
	}
	var zero V
	return zero, false
}

// Remove deletes k and returns its value.
func (t *Tree[K, V]) Remove(k K) (V, bool) {
	n := t.find(k)
	if n == nil {
		var zero V
		return zero, false
	}
	val := n.val

	// Two children: take over the successor's payload and delete the
	// successor instead. It has no left child.
	if n.left != nil && n.right != nil {
		s := minimum(n.right)
		n.key, n.val = s.key, s.val
		n = s
	}

	child := n.left
	if child == nil {
		child = n.right
	}
	switch {
	case child != nil:
		// n is black with a single red child.
		t.replace(n, child)
		child.color = black
	case n.parent == nil:
		t.root = nil
	default:
		if n.color == black {
			t.removeFixup(n)
		}
		t.replace(n, nil)
	}
	n.left, n.right, n.parent = nil, nil, nil
	t.n--
	return val, true
}

// ClosestLeft returns the entry with the largest key <= k.
func (t *Tree[K, V]) ClosestLeft(k K) (K, V, bool) {
	var best *node[K, V]
	cur := t.root
	for cur != nil {
		c := t.compare(k, cur.key)
		if c == 0 {
			return cur.key, cur.val, true
		}
		if c < 0 {
			cur = cur.left
		} else {
			best = cur
			cur = cur.right
		}
	}
	return entryOf(best)
}

// ClosestRight returns the entry with the smallest key >= k.
func (t *Tree[K, V]) ClosestRight(k K) (K, V, bool) {
	var best *node[K, V]
	cur := t.root
	for cur != nil {
		c := t.compare(k, cur.key)
		if c == 0 {
			return cur.key, cur.val, true
		}
		if c > 0 {
			cur = cur.right
		} else {
			best = cur
			cur = cur.left
		}
	}
	return entryOf(best)
}

// Min returns the entry with the smallest key.
func (t *Tree[K, V]) Min() (K, V, bool) {
	if t.root == nil {
		return entryOf[K, V](nil)
	}
	return entryOf(minimum(t.root))
}

// All yields every entry in ascending key order. The tree must not be
// modified during iteration.
func (t *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if t.root == nil {
			return
		}
		for n := minimum(t.root); n != nil; n = successor(n) {
			if !yield(n.key, n.val) {
				return
			}
		}
	}
}

// -------------------- internals --------------------

func entryOf[K, V any](n *node[K, V]) (K, V, bool) {
	if n == nil {
		var (
			k K
			v V
		)
		return k, v, false
	}
	return n.key, n.val, true
}

func (t *Tree[K, V]) find(k K) *node[K, V] {
	cur := t.root
	for cur != nil {
		c := t.compare(k, cur.key)
		switch {
		case c == 0:
			return cur
		case c < 0:
			cur = cur.left
		default:
			cur = cur.right
		}
	}
	return nil
}

func minimum[K, V any](n *node[K, V]) *node[K, V] {
	for n.left != nil {
		n = n.left
	}
	return n
}

func successor[K, V any](n *node[K, V]) *node[K, V] {
	if n.right != nil {
		return minimum(n.right)
	}
	p := n.parent
	for p != nil && n == p.right {
		n, p = p, p.parent
	}
	return p
}

func isBlack[K, V any](n *node[K, V]) bool { return n == nil || n.color == black }

// replace puts r (possibly nil) where n hangs under n's parent.
func (t *Tree[K, V]) replace(n, r *node[K, V]) {
	if r != nil {
		r.parent = n.parent
	}
	switch {
	case n.parent == nil:
		t.root = r
	case n == n.parent.left:
		n.parent.left = r
	default:
		n.parent.right = r
	}
}

func (t *Tree[K, V]) rotateLeft(x *node[K, V]) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	t.replace(x, y)
	y.left = x
	x.parent = y
}

func (t *Tree[K, V]) rotateRight(x *node[K, V]) {
	y := x.left
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	t.replace(x, y)
	y.right = x
	x.parent = y
}

func (t *Tree[K, V]) insertFixup(n *node[K, V]) {
	for n.parent != nil && n.parent.color == red {
		p := n.parent
		g := p.parent // p is red, so it is not the root
		if p == g.left {
			if u := g.right; u != nil && u.color == red {
				p.color, u.color, g.color = black, black, red
				n = g
				continue
			}
			if n == p.right {
				n = p
				t.rotateLeft(n)
				p = n.parent
			}
			p.color, g.color = black, red
			t.rotateRight(g)
		} else {
			if u := g.left; u != nil && u.color == red {
				p.color, u.color, g.color = black, black, red
				n = g
				continue
			}
			if n == p.left {
				n = p
				t.rotateRight(n)
				p = n.parent
			}
			p.color, g.color = black, red
			t.rotateLeft(g)
		}
	}
	t.root.color = black
}

// removeFixup restores the black height around x, a black node that is
// about to lose one black level. x is still linked into the tree.
func (t *Tree[K, V]) removeFixup(x *node[K, V]) {
	for x != t.root && x.color == black {
		p := x.parent
		if x == p.left {
			s := p.right
			if s.color == red {
				s.color, p.color = black, red
				t.rotateLeft(p)
				s = p.right
			}
			if isBlack(s.left) && isBlack(s.right) {
				s.color = red
				x = p
				continue
			}
			if isBlack(s.right) {
				s.left.color, s.color = black, red
				t.rotateRight(s)
				s = p.right
			}
			s.color, p.color = p.color, black
			s.right.color = black
			t.rotateLeft(p)
			x = t.root
		} else {
			s := p.left
			if s.color == red {
				s.color, p.color = black, red
				t.rotateRight(p)
				s = p.left
			}
			if isBlack(s.left) && isBlack(s.right) {
				s.color = red
				x = p
				continue
			}
			if isBlack(s.left) {
				s.right.color, s.color = black, red
				t.rotateLeft(s)
				s = p.left
			}
			s.color, p.color = p.color, black
			s.left.color = black
			t.rotateRight(p)
			x = t.root
		}
	}
	x.color = black
}
