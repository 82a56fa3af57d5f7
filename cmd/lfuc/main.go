// Command lfuc replays an access trace through an LFU or LFU-DA cache and
// prints the number of hits.
//
// The trace is whitespace separated: the cache capacity, the number of
// accesses n, then n keys.
//
//	$ echo "2 4 1 2 1 3" | lfuc -policy lfu
//	1
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IvanBrykalov/freqcache/cache"
	"github.com/IvanBrykalov/freqcache/dump"
	pmet "github.com/IvanBrykalov/freqcache/metrics/prom"
	"github.com/IvanBrykalov/freqcache/policy"
	"github.com/IvanBrykalov/freqcache/policy/lfu"
	"github.com/IvanBrykalov/freqcache/policy/lfuda"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "lfuc:", err)
		os.Exit(1)
	}
}

// run parses flags, replays the trace and writes the hit count to stdout.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	logger := setupLogger(stderr, cfg.Log.Level, cfg.Log.Format)

	in := stdin
	if cfg.Input != "" && cfg.Input != "-" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return fmt.Errorf("open trace: %w", err)
		}
		defer f.Close()
		in = f
	}
	tr, err := readTrace(in)
	if err != nil {
		return err
	}
	if cfg.Capacity > 0 {
		tr.capacity = cfg.Capacity
	}
	if tr.capacity <= 0 {
		return fmt.Errorf("capacity must be > 0, got %d", tr.capacity)
	}

	pol, err := newPolicy(cfg.Policy, cfg.Weight)
	if err != nil {
		return err
	}

	opt := cache.Options[string, string]{
		Capacity: tr.capacity,
		Policy:   pol,
		Logger:   logger,
	}
	if !cfg.Track {
		opt.Fetch = func(k string) string { return k }
	}

	var reg *prometheus.Registry
	if cfg.MetricsAddr != "" {
		reg = prometheus.NewRegistry()
		opt.Metrics = pmet.New(reg, "freqcache", "lfuc", prometheus.Labels{"policy": cfg.Policy})
	}

	c := cache.New(opt)
	logger.Info("replaying trace",
		"policy", cfg.Policy,
		"capacity", tr.capacity,
		"accesses", len(tr.keys),
		"tracking", cfg.Track)

	start := time.Now()
	for i, k := range tr.keys {
		c.Touch(k)
		if cfg.DumpEach != "" {
			if err := writeDump(filepath.Join(cfg.DumpEach, fmt.Sprintf("dump%d.dot", i)), c); err != nil {
				return err
			}
		}
	}
	if cfg.Validate {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	st := c.Stats()
	logger.Info("replay done",
		"hits", st.Hits,
		"misses", st.Misses,
		"evictions", st.Evictions,
		"buckets", st.Buckets,
		"age", st.Age,
		"elapsed", time.Since(start))

	if cfg.Dump != "" {
		if err := writeDump(cfg.Dump, c); err != nil {
			return err
		}
	}
	fmt.Fprintln(stdout, c.Hits())

	if reg != nil {
		return serveMetrics(cfg.MetricsAddr, reg, c, logger)
	}
	return c.Close()
}

func newPolicy(name string, weight uint64) (policy.Policy, error) {
	switch name {
	case "lfu":
		return lfu.New(), nil
	case "lfuda":
		return lfuda.New(weight), nil
	default:
		return nil, fmt.Errorf("unknown policy %q (use lfu or lfuda)", name)
	}
}

func writeDump(path string, c *cache.Cache[string, string]) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dump: %w", err)
	}
	if err := dump.WriteCache[string](f, "cache", c, nil); err != nil {
		f.Close()
		return fmt.Errorf("write dump %s: %w", path, err)
	}
	return f.Close()
}

// serveMetrics keeps the final cache state scrapeable until SIGINT/SIGTERM.
func serveMetrics(addr string, reg *prometheus.Registry, c *cache.Cache[string, string], logger *slog.Logger) error {
	// The replay is over, so Stats is no longer raced by writers.
	reg.MustRegister(pmet.NewCollector(c.Stats, "freqcache", "lfuc_final", nil))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
	return c.Close()
}
