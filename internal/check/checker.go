// Package check runs descriptor validation over files, directories and raw payloads.
package check

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor"
	"github.com/DjordjeVuckovic/modelcfg/internal/validate"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Sink receives every result produced by CheckAll.
type Sink interface {
	Save(ctx context.Context, r Result) error
}

type Config struct {
	Workers int
	Strict  bool
}

type Checker struct {
	config Config
	sink   Sink
	now    func() time.Time
}

type Option func(*Checker)

func WithSink(s Sink) Option {
	return func(c *Checker) {
		c.sink = s
	}
}

func New(cfg Config, opts ...Option) *Checker {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	c := &Checker{config: cfg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckBytes validates an in-memory descriptor. An empty kind is detected from path and content.
func (c *Checker) CheckBytes(ctx context.Context, path string, kind descriptor.Kind, data []byte) Result {
	start := c.now()
	if kind == "" {
		kind = descriptor.DetectKind(path, data)
	}

	r := Result{
		ID:        uuid.New(),
		Path:      path,
		Kind:      kind,
		Strict:    c.config.Strict,
		CheckedAt: start.UTC(),
	}

	doc, err := descriptor.Parse(kind, data)
	if err != nil {
		r.Status = StatusUnreadable
		r.Issues = []validate.Issue{{Message: err.Error(), Severity: validate.SeverityError}}
		r.Duration = c.now().Sub(start)
		slog.DebugContext(ctx, "descriptor unreadable", "path", path, "kind", kind, "error", err)
		return r
	}

	issues, passed := descriptor.Validate(doc, descriptor.Options{Strict: c.config.Strict})
	r.Name = doc.Name
	r.Issues = issues
	r.Status = StatusInvalid
	if passed {
		r.Status = StatusValid
	}
	r.Duration = c.now().Sub(start)

	slog.DebugContext(ctx, "descriptor checked",
		"path", path,
		"kind", kind,
		"status", r.Status,
		"errors", r.ErrorCount(),
		"warnings", r.WarningCount(),
	)
	return r
}

func (c *Checker) CheckFile(ctx context.Context, path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		now := c.now()
		return Result{
			ID:        uuid.New(),
			Path:      path,
			Kind:      descriptor.DetectKind(path, nil),
			Status:    StatusUnreadable,
			Strict:    c.config.Strict,
			Issues:    []validate.Issue{{Message: fmt.Sprintf("read descriptor: %v", err), Severity: validate.SeverityError}},
			CheckedAt: now.UTC(),
		}
	}
	return c.CheckBytes(ctx, path, "", data)
}

// CheckAll discovers descriptor files under paths and checks them with a
// bounded number of workers. Results keep discovery order.
func (c *Checker) CheckAll(ctx context.Context, paths []string) ([]Result, error) {
	files, err := Discover(paths)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)

	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.CheckFile(gctx, f)
			if c.sink == nil {
				return nil
			}
			if err := c.sink.Save(gctx, results[i]); err != nil {
				return fmt.Errorf("save result for %s: %w", f, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "descriptors checked", "files", len(files), "workers", c.config.Workers)
	return results, nil
}

// Discover expands directories into the descriptor files they contain.
// Explicit file arguments are kept whatever their extension. Hidden
// directories are skipped.
func Discover(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if descriptor.IsDescriptorFile(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}
