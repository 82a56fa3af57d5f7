package prom

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/freqcache/cache"
	"github.com/IvanBrykalov/freqcache/policy/lfuda"
)

func TestAdapter_CountsCacheSignals(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	a := New(reg, "freqcache", "test", prometheus.Labels{"cache": "unit"})

	c := cache.New(cache.Options[int, int]{
		Capacity: 2,
		Fetch:    func(k int) int { return k },
		Metrics:  a,
	})
	for _, k := range []int{1, 2, 1, 3} {
		c.Get(k)
	}
	c.Remove(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.hits))
	assert.Equal(t, 3.0, testutil.ToFloat64(a.misses))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.evicts.WithLabelValues("policy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.evicts.WithLabelValues("remove")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.sizeEnt))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.sizeBucket))

	n, err := testutil.GatherAndCount(reg, "freqcache_test_hits_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAdapter_DoubleRegisterPanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	New(reg, "x", "y", nil)
	assert.Panics(t, func() { New(reg, "x", "y", nil) })
}

func TestCollector_ReportsStats(t *testing.T) {
	t.Parallel()

	c := cache.New(cache.Options[string, int]{
		Capacity: 2,
		Policy:   lfuda.New(1),
		Fetch:    func(k string) int { return len(k) },
	})
	for _, k := range []string{"a", "a", "a", "b", "c"} {
		c.Get(k)
	}
	// a at priority 4, b evicted at priority 1, c at 1.

	col := NewCollector(c.Stats, "freqcache", "", nil)
	reg := prometheus.NewRegistry()
	reg.MustRegister(col)

	want := `
# HELP freqcache_age LFU-DA aging floor (0 for LFU)
# TYPE freqcache_age gauge
freqcache_age 1
# HELP freqcache_buckets Distinct priority buckets
# TYPE freqcache_buckets gauge
freqcache_buckets 2
# HELP freqcache_entries Resident entries
# TYPE freqcache_entries gauge
freqcache_entries 2
# HELP freqcache_stats_evictions_total Entries evicted by the policy
# TYPE freqcache_stats_evictions_total counter
freqcache_stats_evictions_total 1
# HELP freqcache_stats_hits_total Accesses that found their key resident
# TYPE freqcache_stats_hits_total counter
freqcache_stats_hits_total 2
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(want),
		"freqcache_age", "freqcache_buckets", "freqcache_entries",
		"freqcache_stats_evictions_total", "freqcache_stats_hits_total")
	require.NoError(t, err)

	n := testutil.CollectAndCount(col, "freqcache_index")
	assert.Equal(t, 3, n)
}
