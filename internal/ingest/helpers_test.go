package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperjump/shiryo/internal/embedding"
	"github.com/hyperjump/shiryo/internal/extract"
	"github.com/hyperjump/shiryo/internal/models"
	"github.com/hyperjump/shiryo/internal/storage"
	"github.com/hyperjump/shiryo/internal/vector"
)

// recordingStore wraps a real vector store and can be told to fail.
type recordingStore struct {
	*vector.EmbeddingStore
	index    *vector.MemoryIndex
	failAdd  bool
	failDel  bool
	addCalls int
	delCalls int
	mu       sync.Mutex
}

func newRecordingStore(t *testing.T) *recordingStore {
	t.Helper()
	idx, err := vector.NewMemoryIndex(16)
	require.NoError(t, err)
	s, err := vector.NewEmbeddingStore(embedding.NewHashEmbedder(16), idx)
	require.NoError(t, err)
	return &recordingStore{EmbeddingStore: s, index: idx}
}

func (r *recordingStore) AddDocuments(ctx context.Context, chunks []*models.Chunk, ids []string) error {
	r.mu.Lock()
	r.addCalls++
	fail := r.failAdd
	r.mu.Unlock()
	if fail {
		// Simulate a partial write before the failure.
		_ = r.EmbeddingStore.AddDocuments(ctx, chunks[:1], ids[:1])
		return errors.New("vector store unavailable")
	}
	return r.EmbeddingStore.AddDocuments(ctx, chunks, ids)
}

func (r *recordingStore) Delete(ctx context.Context, ids []string) error {
	r.mu.Lock()
	r.delCalls++
	fail := r.failDel
	r.mu.Unlock()
	if fail {
		return errors.New("vector delete failed")
	}
	return r.EmbeddingStore.Delete(ctx, ids)
}

// failingKeywords fails every upsert.
type failingKeywords struct {
	storage.ChunkStore
}

func (failingKeywords) UpsertChunks(context.Context, []*models.ChunkRow) error {
	return errors.New("database is locked")
}

// flakyKeywords fails only the first upsert.
type flakyKeywords struct {
	storage.ChunkStore
	mu      sync.Mutex
	upserts int
}

func (f *flakyKeywords) UpsertChunks(ctx context.Context, rows []*models.ChunkRow) error {
	f.mu.Lock()
	f.upserts++
	n := f.upserts
	f.mu.Unlock()
	if n == 1 {
		return errors.New("database is locked")
	}
	return f.ChunkStore.UpsertChunks(ctx, rows)
}

// untouchableKeywords fails the test on any access.
type untouchableKeywords struct {
	storage.ChunkStore
	t *testing.T
}

func (u untouchableKeywords) DeleteDocument(context.Context, string, string, storage.BeforeCommit) (*storage.DeleteOutcome, error) {
	u.t.Fatal("keyword store must not be accessed")
	return nil, nil
}

// staticLoader returns fixed documents per path.
type staticLoader map[string][]*models.Document

func (s staticLoader) Load(_ context.Context, path string) ([]*models.Document, error) {
	docs, ok := s[path]
	if !ok {
		return nil, extract.ErrUnsupported
	}
	return docs, nil
}

type fixture struct {
	handler  *Handler
	keywords *storage.SQLStore
	vectors  *recordingStore
	dir      string
}

func newFixture(t *testing.T, cfg Config, opts ...Option) *fixture {
	t.Helper()
	dir := t.TempDir()
	kw, err := storage.Open(context.Background(), storage.DriverSQLite, filepath.Join(dir, "keyword.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kw.Close() })
	vs := newRecordingStore(t)
	h, err := New(cfg, kw, vs, extract.NewLoader(extract.WithLegacyDoc(false)), opts...)
	require.NoError(t, err)
	return &fixture{handler: h, keywords: kw, vectors: vs, dir: dir}
}

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func (f *fixture) rows(t *testing.T, docID string) []*models.ChunkRow {
	t.Helper()
	rows, err := f.keywords.ChunksByDocument(context.Background(), f.handler.cfg.CollectionName, docID)
	require.NoError(t, err)
	return rows
}

func rowIDs(rows []*models.ChunkRow) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ChunkID
	}
	return ids
}

// distinct returns n characters with no whitespace so normalization keeps the length.
func distinct(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(byte('a' + i%26))
	}
	return b.String()
}

func standardConfig(size, overlap int) Config {
	cfg := DefaultConfig()
	cfg.ChunkSize = size
	cfg.ChunkOverlap = overlap
	return cfg
}

func parentChildConfig(parent, parentOverlap, child, childOverlap int) Config {
	cfg := DefaultConfig()
	cfg.EnableParentChildChunking = true
	cfg.ParentChunkSize = parent
	cfg.ParentChunkOverlap = parentOverlap
	cfg.ChildChunkSize = child
	cfg.ChildChunkOverlap = childOverlap
	return cfg
}
