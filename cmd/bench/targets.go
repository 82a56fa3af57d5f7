package main

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/hashicorp/golang-lru/arc/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/IvanBrykalov/freqcache/cache"
	"github.com/IvanBrykalov/freqcache/policy"
	"github.com/IvanBrykalov/freqcache/policy/lfu"
	"github.com/IvanBrykalov/freqcache/policy/lfuda"
	"github.com/IvanBrykalov/freqcache/sharded"
)

// target is a read-through cache under load. Get reports a hit.
type target interface {
	Get(k string) bool
	Len() int
	Close() error
}

// statser is implemented by targets that can feed the Stats collector.
type statser interface {
	Stats() cache.Stats
}

type targetOptions struct {
	capacity int
	shards   int
	weight   uint64
	fetch    func(string) string
	metrics  cache.Metrics
	logger   *slog.Logger
}

func newTarget(name string, o targetOptions) (target, error) {
	var pol policy.Policy
	switch name {
	case "lfu":
		pol = lfu.New()
	case "lfuda":
		pol = lfuda.New(o.weight)
	case "lru":
		c, err := lru.New[string, string](o.capacity)
		if err != nil {
			return nil, err
		}
		return &lruTarget{c: c, fetch: o.fetch}, nil
	case "arc":
		c, err := arc.NewARC[string, string](o.capacity)
		if err != nil {
			return nil, err
		}
		return &arcTarget{c: c, fetch: o.fetch}, nil
	case "ristretto":
		c, err := ristretto.NewCache(&ristretto.Config[string, string]{
			NumCounters: int64(o.capacity) * 10,
			MaxCost:     int64(o.capacity),
			BufferItems: 64,
			Metrics:     true,
		})
		if err != nil {
			return nil, err
		}
		return &ristrettoTarget{c: c, fetch: o.fetch}, nil
	default:
		return nil, fmt.Errorf("unknown policy %q", name)
	}

	return &shardedTarget{c: sharded.New(sharded.Options[string, string]{
		Capacity: o.capacity,
		Shards:   o.shards,
		Policy:   pol,
		Fetch:    o.fetch,
		Metrics:  o.metrics,
		Logger:   o.logger,
	})}, nil
}

type shardedTarget struct{ c *sharded.Cache[string, string] }

func (t *shardedTarget) Get(k string) bool {
	// Touch fetches on a miss like Get and reports residency directly.
	return t.c.Touch(k)
}
func (t *shardedTarget) Len() int           { return t.c.Len() }
func (t *shardedTarget) Close() error       { return t.c.Close() }
func (t *shardedTarget) Stats() cache.Stats { return t.c.Stats() }

// Baselines load on a miss themselves. The hashicorp caches lock internally.
type lruTarget struct {
	c     *lru.Cache[string, string]
	fetch func(string) string
}

func (t *lruTarget) Get(k string) bool {
	if _, ok := t.c.Get(k); ok {
		return true
	}
	t.c.Add(k, t.fetch(k))
	return false
}
func (t *lruTarget) Len() int     { return t.c.Len() }
func (t *lruTarget) Close() error { return nil }

type arcTarget struct {
	c     *arc.ARCCache[string, string]
	fetch func(string) string
}

func (t *arcTarget) Get(k string) bool {
	if _, ok := t.c.Get(k); ok {
		return true
	}
	t.c.Add(k, t.fetch(k))
	return false
}
func (t *arcTarget) Len() int     { return t.c.Len() }
func (t *arcTarget) Close() error { return nil }

// ristrettoTarget counts its own size: ristretto admits asynchronously.
type ristrettoTarget struct {
	c     *ristretto.Cache[string, string]
	fetch func(string) string
	once  sync.Once
}

func (t *ristrettoTarget) Get(k string) bool {
	if _, ok := t.c.Get(k); ok {
		return true
	}
	t.c.Set(k, t.fetch(k), 1)
	return false
}

func (t *ristrettoTarget) Len() int {
	t.c.Wait()
	return int(t.c.Metrics.KeysAdded() - t.c.Metrics.KeysEvicted())
}

func (t *ristrettoTarget) Close() error {
	t.once.Do(t.c.Close)
	return nil
}
