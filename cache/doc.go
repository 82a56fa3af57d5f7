// Package cache provides a fixed-capacity, generic, read-through cache that
// evicts by access frequency, with pluggable LFU and LFU-DA policies.
//
// Design
//
//   - Buckets: resident entries are grouped into buckets, one per distinct
//     priority, chained in ascending priority order. Each bucket keeps its
//     entries most-recently-promoted first. The victim is always the tail of
//     the first bucket: the lowest priority, ties broken by the longest time
//     since the last access.
//
//   - Policies: the policy only picks buckets (package policy). LFU is the
//     default; its priorities are access counts and the next bucket is always
//     a neighbour. LFU-DA (policy/lfuda) adds an age, keeps a red-black tree
//     of buckets and places new entries at the age instead of at 1.
//
//   - Index: keys map to entries through a hashindex.Index sized at twice
//     the capacity.
//
//   - Slots: payloads live in an arena of Capacity slots allocated once. A
//     victim's slot is handed to the entry that replaces it; slots freed by
//     Remove are reused first.
//
//   - Tracking mode: without Options.Fetch no arena is allocated and Get
//     returns no payload; the cache only counts accesses. Touch is the
//     natural entry point then.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     By default NoopMetrics is used; see metrics/prom for Prometheus.
//
//   - Callbacks: Options.OnEvict(k, v, reason) is called for every entry that
//     leaves the cache (reason is one of EvictPolicy, EvictRemove, EvictClose).
//
// Basic usage
//
//	c := cache.New(cache.Options[int, string]{
//	    Capacity: 1024,
//	    Fetch:    func(k int) string { return load(k) },
//	})
//	v, _ := c.Get(42) // fetched
//	v, _ = c.Get(42)  // hit, frequency 2
//
// LFU-DA
//
//	c := cache.New(cache.Options[string, []byte]{
//	    Capacity: 50_000,
//	    Policy:   lfuda.New(1),
//	    Fetch:    readPage,
//	})
//
// Thread-safety & complexity
//
// A Cache is not safe for concurrent use; guard it with a mutex or use
// package sharded. Get is O(1) amortized under LFU and O(log b) under LFU-DA,
// where b is the number of buckets. Fetch runs synchronously inside Get.
package cache
