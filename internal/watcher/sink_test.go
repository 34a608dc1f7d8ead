package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/shiryo/internal/embedding"
	"github.com/hyperjump/shiryo/internal/extract"
	"github.com/hyperjump/shiryo/internal/ingest"
	"github.com/hyperjump/shiryo/internal/storage"
	"github.com/hyperjump/shiryo/internal/vector"
)

func newHandler(t *testing.T) (*ingest.Handler, *storage.SQLStore) {
	t.Helper()
	dir := t.TempDir()
	kw, err := storage.Open(context.Background(), storage.DriverSQLite, filepath.Join(dir, "kw.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kw.Close() })
	idx, err := vector.NewMemoryIndex(8)
	require.NoError(t, err)
	vs, err := vector.NewEmbeddingStore(embedding.NewHashEmbedder(8), idx)
	require.NoError(t, err)
	cfg := ingest.DefaultConfig()
	cfg.ChunkSize, cfg.ChunkOverlap = 100, 0
	h, err := ingest.New(cfg, kw, vs, extract.NewLoader(extract.WithLegacyDoc(false)))
	require.NoError(t, err)
	return h, kw
}

func TestHandlerSink_replacesShrunkDocument(t *testing.T) {
	h, kw := newHandler(t)
	sink := NewHandlerSink(h, nil)
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")

	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 300)), 0600))
	sink.Upsert(ctx, []string{path})
	rows, err := kw.ChunksByDocument(ctx, "documents", "notes.txt")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	require.NoError(t, os.WriteFile(path, []byte("short now"), 0600))
	sink.Upsert(ctx, []string{path})
	rows, err = kw.ChunksByDocument(ctx, "documents", "notes.txt")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "short now", rows[0].Content)

	sink.Remove(ctx, path)
	rows, err = kw.ChunksByDocument(ctx, "documents", "notes.txt")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
