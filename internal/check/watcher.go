package check

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor"
	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 300 * time.Millisecond

// Watcher re-checks descriptor files under a directory tree when they change.
type Watcher struct {
	checker  *Checker
	root     string
	debounce time.Duration
	onResult func(Result)

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewWatcher(checker *Checker, root string, debounce time.Duration, onResult func(Result)) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		checker:  checker,
		root:     root,
		debounce: debounce,
		onResult: onResult,
		timers:   make(map[string]*time.Timer),
	}
}

// Run blocks until ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	err = filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}

	slog.InfoContext(ctx, "watching descriptors", "root", w.root, "debounce", w.debounce)
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					// fsnotify is not recursive
					if err := fw.Add(event.Name); err != nil {
						slog.WarnContext(ctx, "failed to watch directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !descriptor.IsDescriptorFile(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.ErrorContext(ctx, "watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		r := w.checker.CheckFile(ctx, path)
		if w.checker.sink != nil {
			if err := w.checker.sink.Save(ctx, r); err != nil {
				slog.ErrorContext(ctx, "failed to save result", "path", path, "error", err)
			}
		}
		if w.onResult != nil {
			w.onResult(r)
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.timers {
		t.Stop()
		delete(w.timers, p)
	}
}
