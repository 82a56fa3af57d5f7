package sharded

import (
	"context"
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/freqcache/cache"
	"github.com/IvanBrykalov/freqcache/policy/lfuda"
)

// countingMetrics is a concurrency-safe Metrics double.
type countingMetrics struct {
	hits, misses, evicts atomic.Int64
	mu                   sync.Mutex
	lastEntries          int
}

func (m *countingMetrics) Hit()                    { m.hits.Add(1) }
func (m *countingMetrics) Miss()                   { m.misses.Add(1) }
func (m *countingMetrics) Evict(cache.EvictReason) { m.evicts.Add(1) }
func (m *countingMetrics) Size(entries, _ int) {
	m.mu.Lock()
	m.lastEntries = entries
	m.mu.Unlock()
}

func TestSharded_SplitsCapacity(t *testing.T) {
	t.Parallel()

	c := New(Options[int, int]{Capacity: 100, Shards: 3, Fetch: func(k int) int { return -k }})
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, 4, c.Shards(), "shards round up to a power of two")
	assert.Equal(t, 100, c.Stats().Capacity)

	for i := 0; i < 1000; i++ {
		v, ok := c.Get(i)
		require.True(t, ok)
		require.Equal(t, -i, v)
	}
	st := c.Stats()
	assert.LessOrEqual(t, st.Len, st.Capacity)
	assert.Equal(t, st.Len, c.Len())
	assert.Equal(t, uint64(1000), st.Misses)
	assert.Equal(t, uint64(1000-st.Len), st.Evictions)
	require.NoError(t, c.Validate())
}

// Capacities that do not divide by the shard count still bound residency
// by the configured value.
func TestSharded_CapacityIsExact(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		capacity   int
		shards     int
		wantShards int
	}{
		{"remainder", 5, 4, 4},
		{"odd over many", 37, 8, 8},
		{"fewer entries than shards", 5, 16, 4},
		{"single entry", 1, 0, 1},
		{"auto shards", 3, 0, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := New(Options[int, int]{Capacity: tc.capacity, Shards: tc.shards, Fetch: func(k int) int { return k }})
			t.Cleanup(func() { _ = c.Close() })

			assert.Equal(t, tc.wantShards, c.Shards())
			assert.Equal(t, tc.capacity, c.Stats().Capacity)
			for i := 0; i < 10_000; i++ {
				c.Get(i)
				require.LessOrEqual(t, c.Len(), tc.capacity)
			}
			require.NoError(t, c.Validate())
		})
	}
}

// An identity hash has no high bits for small keys; they must still spread.
func TestSharded_WeakHashSpreads(t *testing.T) {
	t.Parallel()

	c := New(Options[int, int]{
		Capacity: 64,
		Shards:   4,
		Fetch:    func(k int) int { return k },
		Hash:     func(k int) uint64 { return uint64(k) },
	})
	t.Cleanup(func() { _ = c.Close() })

	for i := 0; i < 64; i++ {
		c.Get(i)
	}
	// One shard holds at most 16; all keys on one shard would stop there.
	assert.Greater(t, c.Len(), 32)
	require.NoError(t, c.Validate())
}

func TestSharded_PassesLoadFactor(t *testing.T) {
	t.Parallel()

	build := func(lf float64) *Cache[int, int] {
		c := New(Options[int, int]{Capacity: 4, Shards: 1, LoadFactor: lf, Fetch: func(k int) int { return k }})
		t.Cleanup(func() { _ = c.Close() })
		for i := 0; i < 4; i++ {
			c.Get(i)
		}
		return c
	}

	// 2*Capacity slots never cross the default factor.
	assert.Equal(t, 8, build(0).Stats().Index.Size)
	assert.Greater(t, build(0.01).Stats().Index.Size, 8)
}

func TestSharded_HitsAndRemove(t *testing.T) {
	t.Parallel()

	m := &countingMetrics{}
	c := New(Options[string, string]{
		Capacity: 64,
		Shards:   8,
		Policy:   lfuda.New(1),
		Fetch:    func(k string) string { return "v:" + k },
		Metrics:  m,
	})
	t.Cleanup(func() { _ = c.Close() })

	for _, k := range []string{"a", "b", "a", "c", "a"} {
		c.Get(k)
	}
	assert.Equal(t, uint64(2), c.Hits())
	assert.Equal(t, int64(2), m.hits.Load())
	assert.Equal(t, int64(3), m.misses.Load())
	assert.True(t, c.Touch("b"))
	v, ok := c.Peek("c")
	assert.True(t, ok)
	assert.Equal(t, "v:c", v)

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Contains("a"))
	assert.Equal(t, 2, c.Len())
	m.mu.Lock()
	assert.Equal(t, 2, m.lastEntries)
	m.mu.Unlock()
}

func TestSharded_CloseIgnoresLaterCalls(t *testing.T) {
	t.Parallel()

	var closed atomic.Int64
	c := New(Options[int, int]{
		Capacity: 16,
		Shards:   2,
		Fetch:    func(k int) int { return k },
		OnEvict: func(_ int, _ int, r cache.EvictReason) {
			if r == cache.EvictClose {
				closed.Add(1)
			}
		},
	})
	for i := 0; i < 5; i++ {
		c.Get(i)
	}
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, int64(5), closed.Load())
	assert.Equal(t, 0, c.Len())

	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.False(t, c.Touch(1))
	assert.False(t, c.Remove(1))
}

// Concurrent misses on one key fetch it once: the shard lock serializes them.
func TestSharded_ConcurrentMissFetchesOnce(t *testing.T) {
	var calls atomic.Int64
	c := New(Options[string, string]{
		Capacity: 1024,
		Fetch: func(k string) string {
			calls.Add(1)
			time.Sleep(2 * time.Millisecond) // simulate I/O
			return "v:" + k
		},
	})
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < 64; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, ok := c.Get("same-key")
			if !ok || v != "v:same-key" {
				t.Errorf("unexpected value: %q %v", v, ok)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, uint64(63), c.Hits())
}

// A mixed workload of concurrent Get/Touch/Remove on random keys.
// Should pass under `-race` without detector reports.
func TestRace_Basic(t *testing.T) {
	c := New(Options[string, []byte]{
		Capacity: 8_192,
		Shards:   32,
		Policy:   lfuda.New(1),
		Fetch:    func(string) []byte { return []byte("x") },
	})
	t.Cleanup(func() { _ = c.Close() })

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 50_000
	deadline := time.Now().Add(time.Second)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			r := rand.New(rand.NewSource(int64(w) * 9973))
			for time.Now().Before(deadline) {
				k := "k:" + strconv.Itoa(r.Intn(keyspace))
				switch r.Intn(100) {
				case 0, 1, 2, 3, 4: // ~5%: Remove
					c.Remove(k)
				case 5, 6, 7, 8, 9: // ~5%: Touch
					c.Touch(k)
				default: // ~90%: Get
					c.Get(k)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.NoError(t, c.Validate())
	assert.LessOrEqual(t, c.Len(), c.Stats().Capacity)
	assert.Equal(t, c.Stats().Len, c.Len())
}
