package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/DjordjeVuckovic/modelcfg/internal/check"
	"github.com/DjordjeVuckovic/modelcfg/internal/report"
	"github.com/DjordjeVuckovic/modelcfg/internal/storage"
	"github.com/DjordjeVuckovic/modelcfg/internal/storage/factory"
	"github.com/DjordjeVuckovic/modelcfg/pkg/config/env"
)

func main() {
	cfg := parseFlags()

	level, err := cfg.level()
	if err != nil {
		slog.Error("Invalid flags", "error", err)
		os.Exit(2)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	paths, err := cfg.parsePaths()
	if err != nil {
		slog.Error("Invalid flags", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []check.Option
	if cfg.Store {
		store := openStore(ctx)
		defer store.Close()
		opts = append(opts, check.WithSink(store))
	}
	checker := check.New(check.Config{Workers: cfg.Workers, Strict: cfg.Strict}, opts...)

	switch cfg.Mode {
	case "check":
		if failed := runCheck(ctx, checker, paths, cfg.Output); failed {
			stop()
			os.Exit(1)
		}
	case "watch":
		runWatch(ctx, checker, paths, cfg)
	default:
		slog.Error("Unknown mode", "mode", cfg.Mode)
		os.Exit(2)
	}
}

func openStore(ctx context.Context) storage.Store {
	if err := env.LoadDotEnv(os.Getenv("APP_ENV"), "cmd/modelcfg/.env"); err != nil {
		slog.Debug("Skipping .env ...", "error", err)
	}

	storageCfg, err := factory.LoadEnv()
	if err != nil {
		slog.Error("Failed to load storage config", "error", err)
		os.Exit(1)
	}
	store, err := factory.NewStore(ctx, storageCfg)
	if err != nil {
		slog.Error("Failed to create store", "type", storageCfg.Type, "error", err)
		os.Exit(1)
	}
	return store
}

// runCheck checks every descriptor once and reports whether any failed.
func runCheck(ctx context.Context, checker *check.Checker, paths []string, output string) bool {
	results, err := checker.CheckAll(ctx, paths)
	if err != nil {
		slog.Error("Check failed", "error", err)
		os.Exit(1)
	}

	rpt := report.Generate(results)
	report.WriteTable(rpt, os.Stdout)

	if output != "" {
		if err := report.WriteJSON(rpt, output); err != nil {
			slog.Error("Failed to write JSON report", "error", err)
			os.Exit(1)
		}
		slog.Info("Report written", "path", output)
	}
	return rpt.Summary.Failed()
}

func runWatch(ctx context.Context, checker *check.Checker, paths []string, cfg cliConfig) {
	if len(paths) != 1 {
		slog.Error("Watch mode takes exactly one directory", "paths", paths)
		os.Exit(2)
	}
	info, err := os.Stat(paths[0])
	if err != nil || !info.IsDir() {
		slog.Error("Watch mode requires a directory", "path", paths[0], "error", err)
		os.Exit(2)
	}

	runCheck(ctx, checker, paths, cfg.Output)

	w := check.NewWatcher(checker, paths[0], cfg.Debounce, func(r check.Result) {
		report.WriteTable(report.Generate([]check.Result{r}), os.Stdout)
	})
	if err := w.Run(ctx); err != nil {
		slog.Error("Watcher stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Watcher stopped")
}
