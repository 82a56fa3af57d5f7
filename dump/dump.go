// Package dump renders a cache's bucket chain as a Graphviz digraph.
//
// Buckets are drawn on one rank, lowest priority on the left; each bucket's
// entries hang below it, most recently promoted first, so the next victim
// is the bottom entry of the leftmost column.
package dump

import (
	"fmt"
	"io"
	"iter"

	"github.com/IvanBrykalov/freqcache/cache"
)

// Source is the read-only view dump needs; *cache.Cache satisfies it.
type Source[K comparable] interface {
	Buckets() iter.Seq2[uint64, []cache.EntryInfo[K]]
}

// WriteCache writes src as a DOT digraph named name. label renders a key;
// nil uses fmt.Sprint.
func WriteCache[K comparable](w io.Writer, name string, src Source[K], label func(K) string) error {
	if label == nil {
		label = func(k K) string { return fmt.Sprint(k) }
	}
	d := &walker{w: w}
	d.printf("digraph %q {\n", name)
	d.printf("\trankdir=TB;\n")
	d.printf("\tnode [shape=record, fontname=\"monospace\"];\n")

	var (
		prev  string
		chain []string
	)
	for prio, entries := range src.Buckets() {
		b := d.id("bucket")
		chain = append(chain, b)
		d.printf("\t%s [label=\"priority %d|%d entries\", style=filled, fillcolor=lightblue];\n", b, prio, len(entries))
		if prev != "" {
			d.printf("\t%s -> %s [dir=both];\n", prev, b)
		}
		prev = b

		up := b
		for _, e := range entries {
			n := d.id("entry")
			d.printf("\t%s [label=%q];\n", n, fmt.Sprintf("%s|freq %d", label(e.Key), e.Frequency))
			d.printf("\t%s -> %s;\n", up, n)
			up = n
		}
	}

	if len(chain) > 0 {
		d.printf("\t{ rank=same;")
		for _, b := range chain {
			d.printf(" %s;", b)
		}
		d.printf(" }\n")
	}
	d.printf("}\n")
	return d.err
}

// walker is the traversal context: node numbering and the first error.
type walker struct {
	w    io.Writer
	next int
	err  error
}

func (d *walker) id(kind string) string {
	id := fmt.Sprintf("%s%d", kind, d.next)
	d.next++
	return id
}

func (d *walker) printf(format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, format, args...)
}
