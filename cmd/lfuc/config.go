package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// config holds every lfuc setting. A YAML file given with -config provides
// the base values; flags set on the command line win over it.
type config struct {
	Input       string `yaml:"input"`
	Policy      string `yaml:"policy"`
	Weight      uint64 `yaml:"weight"`
	Capacity    int    `yaml:"capacity"` // overrides the trace header when > 0
	Track       bool   `yaml:"track"`
	Validate    bool   `yaml:"validate"`
	Dump        string `yaml:"dump"`
	DumpEach    string `yaml:"dump_each"`
	MetricsAddr string `yaml:"metrics_addr"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func defaultConfig() config {
	var c config
	c.Policy = "lfu"
	c.Weight = 1
	c.Log.Level = "warn"
	c.Log.Format = "text"
	return c
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	fs := flag.NewFlagSet("lfuc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfgPath  = fs.String("config", "", "YAML config file")
		flagsCfg = defaultConfig()
	)
	fs.StringVar(&flagsCfg.Input, "in", "", "trace file (default stdin)")
	fs.StringVar(&flagsCfg.Policy, "policy", flagsCfg.Policy, "eviction policy: lfu | lfuda")
	fs.Uint64Var(&flagsCfg.Weight, "weight", flagsCfg.Weight, "LFU-DA frequency weight")
	fs.IntVar(&flagsCfg.Capacity, "cap", 0, "capacity override (0 = from trace)")
	fs.BoolVar(&flagsCfg.Track, "track", false, "tracking mode: no payload storage")
	fs.BoolVar(&flagsCfg.Validate, "validate", false, "check cache invariants after the replay")
	fs.StringVar(&flagsCfg.Dump, "dump", "", "write the final bucket chain as DOT to this file")
	fs.StringVar(&flagsCfg.DumpEach, "dump-each", "", "write dumpN.dot after every access into this directory")
	fs.StringVar(&flagsCfg.MetricsAddr, "metrics", "", "serve Prometheus metrics at addr after the replay")
	fs.StringVar(&flagsCfg.Log.Level, "log-level", flagsCfg.Log.Level, "log level (debug, info, warn, error)")
	fs.StringVar(&flagsCfg.Log.Format, "log-format", flagsCfg.Log.Format, "log format (text, json)")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() > 0 {
		return config{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if *cfgPath == "" {
		return flagsCfg, nil
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.Input = flagsCfg.Input
		case "policy":
			cfg.Policy = flagsCfg.Policy
		case "weight":
			cfg.Weight = flagsCfg.Weight
		case "cap":
			cfg.Capacity = flagsCfg.Capacity
		case "track":
			cfg.Track = flagsCfg.Track
		case "validate":
			cfg.Validate = flagsCfg.Validate
		case "dump":
			cfg.Dump = flagsCfg.Dump
		case "dump-each":
			cfg.DumpEach = flagsCfg.DumpEach
		case "metrics":
			cfg.MetricsAddr = flagsCfg.MetricsAddr
		case "log-level":
			cfg.Log.Level = flagsCfg.Log.Level
		case "log-format":
			cfg.Log.Format = flagsCfg.Log.Format
		}
	})
	return cfg, nil
}

// loadConfig reads a YAML config on top of the defaults.
func loadConfig(path string) (config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func setupLogger(w io.Writer, level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
