package rbtree

import "fmt"

type constError string

func (e constError) Error() string { return string(e) }

// ErrInvalid is wrapped by every error returned from Validate.
const ErrInvalid = constError("rbtree: invalid tree")

// IsValid reports whether the red-black and search-tree properties hold.
func (t *Tree[K, V]) IsValid() bool { return t.Validate() == nil }

// Validate checks the whole tree and describes the first violated property:
// black root, no red node with a red child, equal black height on every
// path, keys in order, consistent parent links and Len.
func (t *Tree[K, V]) Validate() error {
	if t.root == nil {
		if t.n != 0 {
			return fmt.Errorf("%w: empty tree with Len %d", ErrInvalid, t.n)
		}
		return nil
	}
	if t.root.parent != nil {
		return fmt.Errorf("%w: root has a parent", ErrInvalid)
	}
	if t.root.color != black {
		return fmt.Errorf("%w: root is red", ErrInvalid)
	}
	count := 0
	if _, err := t.check(t.root, &count); err != nil {
		return err
	}
	if count != t.n {
		return fmt.Errorf("%w: counted %d nodes, Len %d", ErrInvalid, count, t.n)
	}
	for n := minimum(t.root); ; {
		next := successor(n)
		if next == nil {
			break
		}
		if t.compare(n.key, next.key) >= 0 {
			return fmt.Errorf("%w: %v precedes %v in order", ErrInvalid, n.key, next.key)
		}
		n = next
	}
	return nil
}

// check returns the black height of the subtree at n.
func (t *Tree[K, V]) check(n *node[K, V], count *int) (int, error) {
	if n == nil {
		return 1, nil
	}
	*count++
	for _, c := range [...]*node[K, V]{n.left, n.right} {
		if c == nil {
			continue
		}
		if c.parent != n {
			return 0, fmt.Errorf("%w: broken parent link under %v", ErrInvalid, n.key)
		}
		if n.color == red && c.color == red {
			return 0, fmt.Errorf("%w: red node %v has red child %v", ErrInvalid, n.key, c.key)
		}
	}
	if n.left != nil && t.compare(n.left.key, n.key) >= 0 {
		return 0, fmt.Errorf("%w: left child %v not below %v", ErrInvalid, n.left.key, n.key)
	}
	if n.right != nil && t.compare(n.right.key, n.key) <= 0 {
		return 0, fmt.Errorf("%w: right child %v not above %v", ErrInvalid, n.right.key, n.key)
	}
	lh, err := t.check(n.left, count)
	if err != nil {
		return 0, err
	}
	rh, err := t.check(n.right, count)
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, fmt.Errorf("%w: black height %d vs %d under %v", ErrInvalid, lh, rh, n.key)
	}
	if n.color == black {
		lh++
	}
	return lh, nil
}
