package util

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/edsrzf/mmap-go"
	lru "github.com/hashicorp/golang-lru/v2"
)

// SourceCache reads widget source files through read-only memory maps and
// keeps the most recently used mappings open.
//
// Entries are keyed by path and validated against size and modification
// time on every Read, so an edited file (watch mode) is remapped instead of
// served stale. Evicted or invalidated entries are unmapped immediately.
//
// Read always returns a private copy: parse trees outlive cache entries and
// must never point into a region that may be unmapped.
//
// Thread-safe.
type SourceCache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *mappedSource]
	logger  *slog.Logger
	stats   SourceCacheStats
}

// SourceCacheConfig controls SourceCache behavior.
type SourceCacheConfig struct {
	// MaxFiles bounds the number of open mappings. Zero means the default.
	MaxFiles int

	// Logger for mmap fallbacks and unmap failures. Nil uses slog.Default().
	Logger *slog.Logger
}

// SourceCacheStats tracks cache behaviour.
type SourceCacheStats struct {
	Hits         int64
	Misses       int64
	Invalidated  int64
	MmapFailures int64
	Cached       int
}

// DefaultSourceCacheConfig returns defaults sized for a component library.
func DefaultSourceCacheConfig() SourceCacheConfig {
	return SourceCacheConfig{MaxFiles: 512}
}

type mappedSource struct {
	path    string
	size    int64
	modTime time.Time

	// exactly one of data/heap is set for non-empty files
	data mmap.MMap
	file *os.File
	heap []byte
}

func (m *mappedSource) bytes() []byte {
	if m.data != nil {
		return m.data
	}
	return m.heap
}

func (m *mappedSource) release() error {
	var errs []error
	if m.data != nil {
		if err := m.data.Unmap(); err != nil {
			errs = append(errs, fmt.Errorf("unmap %q: %w", m.path, err))
		}
		m.data = nil
	}
	if m.file != nil {
		if err := m.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", m.path, err))
		}
		m.file = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("release source: %v", errs)
	}
	return nil
}

// NewSourceCache creates a SourceCache.
func NewSourceCache(config SourceCacheConfig) (*SourceCache, error) {
	if config.MaxFiles <= 0 {
		config.MaxFiles = DefaultSourceCacheConfig().MaxFiles
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sc := &SourceCache{logger: logger}
	entries, err := lru.NewWithEvict(config.MaxFiles, func(path string, m *mappedSource) {
		if err := m.release(); err != nil {
			logger.Warn("failed to release cached source", "path", path, "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create source cache: %w", err)
	}
	sc.entries = entries
	return sc, nil
}

// Read returns the contents of path.
func (sc *SourceCache) Read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%q is a directory", path)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if m, ok := sc.entries.Get(path); ok {
		if m.size == info.Size() && m.modTime.Equal(info.ModTime()) {
			sc.stats.Hits++
			return bytes.Clone(m.bytes()), nil
		}
		sc.entries.Remove(path)
		sc.stats.Invalidated++
	}

	sc.stats.Misses++
	m, err := sc.load(path)
	if err != nil {
		return nil, err
	}
	sc.entries.Add(path, m)

	out := bytes.Clone(m.bytes())
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// load maps path, falling back to a heap read when mmap is unavailable.
// Must be called with sc.mu held.
func (sc *SourceCache) load(path string) (*mappedSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}

	m := &mappedSource{path: path, size: info.Size(), modTime: info.ModTime()}
	if info.Size() == 0 {
		// zero-length regions cannot be mapped
		f.Close()
		return m, nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		sc.stats.MmapFailures++
		sc.logger.Warn("mmap failed, reading into memory", "path", path, "error", err)
		f.Close()
		heap, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("read %q: %w", path, readErr)
		}
		m.heap = heap
		return m, nil
	}

	m.data = data
	m.file = f
	return m, nil
}

// Invalidate drops path from the cache.
func (sc *SourceCache) Invalidate(path string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.entries.Remove(path) {
		sc.stats.Invalidated++
	}
}

// Len returns the number of cached files.
func (sc *SourceCache) Len() int {
	return sc.entries.Len()
}

// Stats returns a snapshot of cache counters.
func (sc *SourceCache) Stats() SourceCacheStats {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	stats := sc.stats
	stats.Cached = sc.entries.Len()
	return stats
}

// Close unmaps every cached file.
func (sc *SourceCache) Close() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.entries.Purge()
	sc.logger.Debug("source cache closed",
		"hits", sc.stats.Hits,
		"misses", sc.stats.Misses,
		"mmap_failures", sc.stats.MmapFailures)
	return nil
}
