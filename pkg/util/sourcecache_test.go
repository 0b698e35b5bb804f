package util

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, maxFiles int) *SourceCache {
	t.Helper()
	sc, err := NewSourceCache(SourceCacheConfig{MaxFiles: maxFiles, Logger: DiscardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { sc.Close() })
	return sc
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSourceCache_ReadAndHit(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "button.tsx", "export interface ButtonProperties { label: string; }")

	sc := newTestCache(t, 8)

	first, err := sc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "export interface ButtonProperties { label: string; }", string(first))

	second, err := sc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stats := sc.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.Cached)
}

func TestSourceCache_ReturnsPrivateCopy(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "a.ts", "abc")

	sc := newTestCache(t, 8)
	data, err := sc.Read(path)
	require.NoError(t, err)
	data[0] = 'z'

	again, err := sc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestSourceCache_InvalidatesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "a.ts", "interface A {}")

	sc := newTestCache(t, 8)
	_, err := sc.Read(path)
	require.NoError(t, err)

	writeSource(t, dir, "a.ts", "interface A { changed: boolean; }")

	data, err := sc.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "interface A { changed: boolean; }", string(data))
	assert.Equal(t, int64(1), sc.Stats().Invalidated)
}

func TestSourceCache_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "empty.ts", "")

	sc := newTestCache(t, 8)
	data, err := sc.Read(path)
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Empty(t, data)
}

func TestSourceCache_Missing(t *testing.T) {
	sc := newTestCache(t, 8)
	_, err := sc.Read(filepath.Join(t.TempDir(), "nope.ts"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSourceCache_EvictsBeyondLimit(t *testing.T) {
	dir := t.TempDir()
	sc := newTestCache(t, 2)

	for _, name := range []string{"a.ts", "b.ts", "c.ts"} {
		path := writeSource(t, dir, name, "// "+name)
		_, err := sc.Read(path)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, sc.Len())

	// evicted entries are simply reloaded
	data, err := sc.Read(filepath.Join(dir, "a.ts"))
	require.NoError(t, err)
	assert.Equal(t, "// a.ts", string(data))
}

func TestSourceCache_Invalidate(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "a.ts", "x")

	sc := newTestCache(t, 8)
	_, err := sc.Read(path)
	require.NoError(t, err)

	sc.Invalidate(path)
	assert.Equal(t, 0, sc.Len())
}

func TestSourceCache_Concurrent(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "shared.ts", "export default class Shared {}")

	sc := newTestCache(t, 8)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := sc.Read(path)
			assert.NoError(t, err)
			assert.Equal(t, "export default class Shared {}", string(data))
		}()
	}
	wg.Wait()
}
