package rbtree

import (
	"fmt"
	"io"
)

// WriteDOT writes the tree as a Graphviz digraph. label renders one entry;
// nil labels entries with their key. Missing children are drawn as NIL boxes.
func (t *Tree[K, V]) WriteDOT(w io.Writer, label func(K, V) string) error {
	if label == nil {
		label = func(k K, _ V) string { return fmt.Sprint(k) }
	}
	d := &dotWriter[K, V]{w: w, label: label}
	d.printf("digraph rbtree {\n")
	d.printf("\tnode [style=filled, fontcolor=white];\n")
	if t.root != nil {
		d.walk(t.root)
	}
	d.printf("}\n")
	return d.err
}

// dotWriter carries the node counter and the first write error through
// the traversal.
type dotWriter[K, V any] struct {
	w     io.Writer
	label func(K, V) string
	next  int
	err   error
}

func (d *dotWriter[K, V]) printf(format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, format, args...)
}

func (d *dotWriter[K, V]) id() int {
	id := d.next
	d.next++
	return id
}

func (d *dotWriter[K, V]) walk(n *node[K, V]) int {
	id := d.id()
	fill := "red"
	if n.color == black {
		fill = "black"
	}
	d.printf("\tn%d [label=%q, fillcolor=%s];\n", id, d.label(n.key, n.val), fill)
	for _, c := range [...]*node[K, V]{n.left, n.right} {
		if c == nil {
			nid := d.id()
			d.printf("\tn%d [label=\"NIL\", shape=box, fillcolor=black, fontsize=8];\n", nid)
			d.printf("\tn%d -> n%d;\n", id, nid)
			continue
		}
		cid := d.walk(c)
		d.printf("\tn%d -> n%d;\n", id, cid)
	}
	return id
}
