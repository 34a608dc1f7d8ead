package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink collects batches and removals.
type recordingSink struct {
	mu      sync.Mutex
	batches [][]string
	removed []string
}

func (s *recordingSink) Upsert(_ context.Context, paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, paths)
}

func (s *recordingSink) Remove(_ context.Context, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, path)
}

func (s *recordingSink) upserted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []string
	for _, b := range s.batches {
		all = append(all, b...)
	}
	return all
}

func (s *recordingSink) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *recordingSink) removedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.removed...)
}

const (
	testDebounce = 100 * time.Millisecond
	waitFor      = 3 * time.Second
	tick         = 20 * time.Millisecond
)

func startWatcher(t *testing.T, roots, exts []string, recursive bool, sink Sink) *Watcher {
	t.Helper()
	w := New(roots, exts, recursive, sink, WithDebounce(testDebounce))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		w.Stop()
		cancel()
	})
	require.NoError(t, w.Start(ctx))
	return w
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, nil, []string{".txt"}, true, &recordingSink{})

	require.NoError(t, w.AddDirectory(dir, false))
	require.NoError(t, w.AddDirectory(dir, false), "adding twice is a no-op")
	dirs := w.Directories()
	require.Len(t, dirs, 1)
	assert.Equal(t, filepath.Clean(dir), filepath.Clean(dirs[0]))

	require.NoError(t, w.RemoveDirectory(dir))
	assert.Empty(t, w.Directories())
}

func TestWatcher_batchesDebouncedFiles(t *testing.T) {
	dir := t.TempDir()
	sink := &recordingSink{}
	startWatcher(t, []string{dir}, []string{".txt"}, true, sink)

	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "sub", "b.txt")
	writeFile(t, a, "one")
	writeFile(t, a, "one, edited")
	writeFile(t, b, "two")
	writeFile(t, filepath.Join(dir, "skip.xyz"), "x")

	require.Eventually(t, func() bool {
		got := sink.upserted()
		return slices.Contains(got, a) && slices.Contains(got, b)
	}, waitFor, tick)
	for _, p := range sink.upserted() {
		assert.NotEqual(t, ".xyz", filepath.Ext(p))
	}
	assert.LessOrEqual(t, sink.batchCount(), 3, "events within the debounce window share a batch")
}

func TestWatcher_removeCallsSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.txt")
	writeFile(t, path, "bye")
	sink := &recordingSink{}
	startWatcher(t, []string{dir}, []string{".txt"}, true, sink)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		return slices.Contains(sink.removedPaths(), path)
	}, waitFor, tick)
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")
	writeFile(t, filepath.Join(dir, "nested", "b.txt"), "hello")
	writeFile(t, filepath.Join(dir, "ignore.xyz"), "x")
	writeFile(t, filepath.Join(dir, ".hidden.txt"), "x")

	sink := &recordingSink{}
	w := startWatcher(t, []string{dir}, []string{".txt"}, false, sink)
	w.SyncExistingFiles()

	require.Eventually(t, func() bool { return sink.batchCount() == 1 }, waitFor, tick)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, sink.upserted(),
		"non-recursive sync skips subdirectories and hidden files")
}

func TestWatcher_newDirectoryIsQueued(t *testing.T) {
	dir := t.TempDir()
	sink := &recordingSink{}
	startWatcher(t, []string{dir}, []string{".txt", ".md"}, true, sink)

	nested := filepath.Join(dir, "level1", "level2")
	writeFile(t, filepath.Join(nested, "deep.txt"), "deep content")
	writeFile(t, filepath.Join(dir, "level1", "doc.md"), "world")

	require.Eventually(t, func() bool {
		got := sink.upserted()
		return slices.Contains(got, filepath.Join(nested, "deep.txt")) &&
			slices.Contains(got, filepath.Join(dir, "level1", "doc.md"))
	}, waitFor, tick)
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "watch", "me")
	startWatcher(t, []string{root}, nil, true, &recordingSink{})
	_, err := os.Stat(root)
	assert.NoError(t, err)
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.txt", []string{".txt"}, true},
		{"/a/b.TXT", []string{"txt"}, true},
		{"/a/b.md", []string{".txt"}, false},
		{"/a/b", nil, true},
		{"/a/.b.txt", nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchExtension(tt.path, tt.extensions), "%s %v", tt.path, tt.extensions)
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.txt", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inDir(tt.dir, tt.path), "inDir(%q, %q)", tt.dir, tt.path)
	}
}
