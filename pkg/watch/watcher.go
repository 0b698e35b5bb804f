// Package watch reports bursts of changes to a widget library's files.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/propdoc/pkg/parser"
)

// DefaultDebounce is the quiet period that ends a burst.
const DefaultDebounce = 200 * time.Millisecond

// ErrStopped is returned by operations on a stopped Watcher.
var ErrStopped = errors.New("watcher stopped")

// Handler receives the files changed during one burst, sorted. Handlers run
// on the watcher's goroutine, one at a time; events arriving meanwhile are
// collected into the next burst.
type Handler func(ctx context.Context, changed []string)

// Options configures a Watcher.
type Options struct {
	// Debounce is how long the watcher waits for further events before
	// invoking the handler. Zero means DefaultDebounce.
	Debounce time.Duration

	// IgnorePatterns are doublestar patterns matched against base names.
	// node_modules and .git are always ignored.
	IgnorePatterns []string

	Logger *slog.Logger
}

// Watcher watches source directories and individual files.
//
// Directories are watched non-recursively and only source files inside them
// count. Files added with AddFile count regardless of extension.
//
//	w, _ := watch.New(watch.Options{})
//	w.AddDir("src")
//	w.AddFile("widgets.yaml")
//	w.Start(ctx, func(ctx context.Context, changed []string) { ... })
//	defer w.Stop()
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	ignore   []string
	logger   *slog.Logger

	mu      sync.Mutex
	dirs    map[string]bool
	files   map[string]bool
	started bool

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	events atomic.Int64
	bursts atomic.Int64
}

// Stats describes watcher activity.
type Stats struct {
	Dirs      int
	Files     int
	Events    int64
	Bursts    int64
	IsRunning bool
}

// New creates a Watcher. It watches nothing until AddDir or AddFile.
func New(opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fsw:      fsw,
		debounce: opts.Debounce,
		ignore:   opts.IgnorePatterns,
		logger:   logger,
		dirs:     make(map[string]bool),
		files:    make(map[string]bool),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// AddDir watches the source files directly inside dir. Ignored directories
// are skipped silently.
func (w *Watcher) AddDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if w.ignored(abs) {
		w.logger.Debug("not watching ignored directory", "path", abs)
		return nil
	}
	return w.watchDir(abs, func() { w.dirs[abs] = true })
}

// AddFile watches a single file through its parent directory.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	return w.watchDir(filepath.Dir(abs), func() { w.files[abs] = true })
}

func (w *Watcher) watchDir(dir string, register func()) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.stop:
		return ErrStopped
	default:
	}

	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	register()
	return nil
}

// Start runs the event loop in the background until ctx is done or Stop is
// called. A Watcher can be started once.
func (w *Watcher) Start(ctx context.Context, handle Handler) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.stop:
		return ErrStopped
	default:
	}
	if w.started {
		return fmt.Errorf("watcher already started")
	}
	w.started = true

	w.logger.Info("file watcher started",
		"dirs", len(w.dirs),
		"files", len(w.files),
		"debounce", w.debounce)
	go w.loop(ctx, handle)
	return nil
}

// Stop ends the event loop and releases the watches. It waits for a
// running handler to return. Safe to call multiple times.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		w.mu.Lock()
		close(w.stop)
		started := w.started
		w.mu.Unlock()

		if started {
			<-w.done
		}
		err = w.fsw.Close()
		w.logger.Info("file watcher stopped", "bursts", w.bursts.Load())
	})
	return err
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	running := w.started
	select {
	case <-w.done:
		running = false
	default:
	}
	return Stats{
		Dirs:      len(w.dirs),
		Files:     len(w.files),
		Events:    w.events.Load(),
		Bursts:    w.bursts.Load(),
		IsRunning: running,
	}
}

func (w *Watcher) loop(ctx context.Context, handle Handler) {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	pending := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.events.Add(1)
			w.logger.Debug("file event", "op", event.Op.String(), "file", event.Name)
			pending[filepath.Clean(event.Name)] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			slices.Sort(changed)
			clear(pending)

			w.bursts.Add(1)
			handle(ctx, changed)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	tracked := w.files[path]
	inDir := w.dirs[filepath.Dir(path)]
	w.mu.Unlock()

	if tracked {
		return true
	}
	return inDir && parser.IsSourceFile(path) && !w.ignored(path)
}

// ignored reports whether any element of path is node_modules or .git, or
// its base name matches an ignore pattern.
func (w *Watcher) ignored(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "node_modules" || part == ".git" {
			return true
		}
	}
	base := filepath.Base(path)
	for _, pattern := range w.ignore {
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
