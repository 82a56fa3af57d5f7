package cache

// entry is one resident key. It sits on its bucket's local list
// (head = most recently promoted) and refers to its payload by slot index.
type entry[K comparable] struct {
	key  K
	freq uint64 // accesses including the inserting one

	// Index into the slot arena; -1 in tracking mode.
	slot int

	bucket     *bucket[K]
	prev, next *entry[K]
}

// bucket groups the entries sharing one priority. Buckets form the chain
// ordered by ascending priority; a bucket lives only while it holds entries.
type bucket[K comparable] struct {
	priority   uint64
	head, tail *entry[K]
	n          int

	prev, next *bucket[K]
}

// Priority implements policy.Bucket.
func (b *bucket[K]) Priority() uint64 { return b.priority }

// pushFront links e as the most recently promoted entry of b.
func (b *bucket[K]) pushFront(e *entry[K]) {
	e.bucket = b
	e.prev = nil
	e.next = b.head
	if b.head != nil {
		b.head.prev = e
	}
	b.head = e
	if b.tail == nil {
		b.tail = e
	}
	b.n++
}

// remove unlinks e from b's local list.
func (b *bucket[K]) remove(e *entry[K]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		b.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		b.tail = e.prev
	}
	e.prev, e.next, e.bucket = nil, nil, nil
	b.n--
}
