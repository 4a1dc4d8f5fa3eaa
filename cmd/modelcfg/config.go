package main

import (
	"flag"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/DjordjeVuckovic/modelcfg/pkg/utils"
)

type cliConfig struct {
	Mode     string
	Paths    string
	Output   string
	Strict   bool
	Workers  int
	Store    bool
	Debounce time.Duration
	LogLevel string
}

func parseFlags() cliConfig {
	cfg := cliConfig{}

	flag.StringVar(&cfg.Mode, "mode", "check", "Run mode: check or watch")
	flag.StringVar(&cfg.Paths, "path", ".", "Descriptor files or directories, comma-separated")
	flag.StringVar(&cfg.Output, "output", "", "Output path for the JSON report")
	flag.BoolVar(&cfg.Strict, "strict", false, "Fail descriptors that only have warnings")
	flag.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "Number of files checked concurrently")
	flag.BoolVar(&cfg.Store, "store", false, "Persist results to the storage configured by STORAGE_TYPE")
	flag.DurationVar(&cfg.Debounce, "debounce", 300*time.Millisecond, "Quiet period before a changed file is re-checked (watch mode)")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn or error")

	flag.Parse()
	return cfg
}

func (c cliConfig) parsePaths() ([]string, error) {
	paths := utils.SplitList(c.Paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one path is required")
	}
	return paths, nil
}

func (c cliConfig) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
