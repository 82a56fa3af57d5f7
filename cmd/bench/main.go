// Command bench runs a synthetic read-through workload against the sharded
// cache or a baseline and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/freqcache/cache"
	pmet "github.com/IvanBrykalov/freqcache/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		capacity = flag.Int("cap", 100_000, "cache capacity (entries)")
		shards   = flag.Int("shards", 0, "number of shards (0=auto)")
		impl     = flag.String("policy", "lfu", "cache: lfu | lfuda | lru | arc | ristretto")
		weight   = flag.Uint64("weight", 1, "LFU-DA frequency weight")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		fetchDur = flag.Duration("fetch", 0, "simulated fetch latency per miss")

		keys  = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed  = flag.Int64("seed", time.Now().UnixNano(), "random seed")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr; empty = disabled")
		logLevel    = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	logger := setupLogger(*logLevel)

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			logger.Info("pprof: serving", "addr", *pprofAddr)
			logger.Error("pprof server", "error", http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Build cache ----
	fetch := func(k string) string {
		if *fetchDur > 0 {
			time.Sleep(*fetchDur)
		}
		return "v:" + k
	}
	var metrics cache.Metrics
	if *metricsAddr != "" {
		metrics = pmet.New(prometheus.DefaultRegisterer, "freqcache", "bench", prometheus.Labels{"policy": *impl})
	}
	c, err := newTarget(*impl, targetOptions{
		capacity: *capacity,
		shards:   *shards,
		weight:   *weight,
		fetch:    fetch,
		metrics:  metrics,
		logger:   logger,
	})
	if err != nil {
		logger.Error("build cache", "error", err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	// ---- Prometheus metrics (on DefaultServeMux) ----
	if *metricsAddr != "" {
		if sc, ok := c.(statser); ok {
			prometheus.MustRegister(pmet.NewCollector(sc.Stats, "freqcache", "bench", prometheus.Labels{"policy": *impl}))
		}
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Info("metrics: serving", "addr", *metricsAddr)
			logger.Error("metrics server", "error", http.ListenAndServe(*metricsAddr, nil))
		}()
	}

	// ---- Snapshot flags for goroutines ----
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var hits, total atomic.Uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workersN; w++ {
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(w)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			for ctx.Err() == nil {
				k := "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
				total.Add(1)
				if c.Get(k) {
					hits.Add(1)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := total.Load()
	hitsN := hits.Load()
	hitRate := 0.0
	if ops > 0 {
		hitRate = float64(hitsN) / float64(ops) * 100
	}

	logger.Info("bench done",
		"policy", *impl,
		"cap", *capacity,
		"workers", workersN,
		"keys", *keys,
		"elapsed", elapsed,
		"seed", seedBase)
	fmt.Printf("policy=%s cap=%d shards=%d workers=%d keys=%d dur=%v seed=%d\n",
		*impl, *capacity, *shards, workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)\n", ops, float64(ops)/elapsed.Seconds())
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, ops-hitsN, hitRate)
	fmt.Printf("Len()=%d\n", c.Len())
}

func setupLogger(level string) *slog.Logger {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}
