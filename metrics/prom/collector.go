package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/freqcache/cache"
)

// Collector turns a cache.Stats snapshot into metrics at scrape time.
// stats is called once per scrape and must be safe to call from the
// scraping goroutine (sharded.Cache.Stats is; a bare cache.Cache needs the
// caller's lock).
type Collector struct {
	stats func() cache.Stats

	entries    *prometheus.Desc
	capacity   *prometheus.Desc
	hits       *prometheus.Desc
	misses     *prometheus.Desc
	evictions  *prometheus.Desc
	buckets    *prometheus.Desc
	age        *prometheus.Desc
	indexSlots *prometheus.Desc
}

// NewCollector builds a Collector; register it with reg.MustRegister.
func NewCollector(stats func() cache.Stats, ns, sub string, constLabels prometheus.Labels) *Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(ns, sub, name), help, labels, constLabels)
	}
	return &Collector{
		stats:      stats,
		entries:    desc("entries", "Resident entries"),
		capacity:   desc("capacity", "Configured entry capacity"),
		hits:       desc("stats_hits_total", "Accesses that found their key resident"),
		misses:     desc("stats_misses_total", "Accesses that fetched their key"),
		evictions:  desc("stats_evictions_total", "Entries evicted by the policy"),
		buckets:    desc("buckets", "Distinct priority buckets"),
		age:        desc("age", "LFU-DA aging floor (0 for LFU)"),
		indexSlots: desc("index", "Hash index slots (total, used) and colliding entries", "state"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.entries, c.capacity, c.hits, c.misses, c.evictions, c.buckets, c.age, c.indexSlots,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.stats()
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}

	gauge(c.entries, float64(st.Len))
	gauge(c.capacity, float64(st.Capacity))
	counter(c.hits, st.Hits)
	counter(c.misses, st.Misses)
	counter(c.evictions, st.Evictions)
	gauge(c.buckets, float64(st.Buckets))
	gauge(c.age, float64(st.Age))
	gauge(c.indexSlots, float64(st.Index.Size), "total")
	gauge(c.indexSlots, float64(st.Index.Used), "used")
	gauge(c.indexSlots, float64(st.Index.Collisions), "collisions")
}

var _ prometheus.Collector = (*Collector)(nil)
