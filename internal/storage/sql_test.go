package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/shiryo/internal/models"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "db", "keyword.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func row(collection, docID, chunkID, content string) *models.ChunkRow {
	return &models.ChunkRow{
		ChunkID:        chunkID,
		DocumentID:     docID,
		CollectionName: collection,
		Content:        content,
		Metadata: &models.ChunkMetadata{
			ChunkID: chunkID, DocumentID: docID, CollectionName: collection, Type: models.TypeText,
		},
	}
}

func TestSQLStore_UpsertIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	rows := []*models.ChunkRow{
		row("docs", "a.txt", "a.txt_0_0", "first"),
		row("docs", "a.txt", "a.txt_0_1", "second"),
	}
	require.NoError(t, s.UpsertChunks(ctx, rows))
	require.NoError(t, s.UpsertChunks(ctx, rows))

	n, err := s.CountChunks(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSQLStore_UpsertOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertChunks(ctx, []*models.ChunkRow{row("docs", "a.txt", "a.txt_0_0", "old")}))

	updated := row("docs", "a.txt", "a.txt_0_0", "new")
	updated.TokenizedContent = "new"
	updated.Metadata.Page = 3
	require.NoError(t, s.UpsertChunks(ctx, []*models.ChunkRow{updated}))

	got, err := s.GetChunk(ctx, "a.txt_0_0")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Content)
	assert.Equal(t, "new", got.TokenizedContent)
	assert.Equal(t, 3, got.Metadata.Page)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLStore_UpsertRollsBackBatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	err := s.UpsertChunks(ctx, []*models.ChunkRow{
		row("docs", "a.txt", "a.txt_0_0", "ok"),
		row("docs", "a.txt", "", "bad id"),
	})
	require.Error(t, err)

	n, err := s.CountChunks(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLStore_UpsertEmpty(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.UpsertChunks(context.Background(), nil))
}

func TestSQLStore_DeleteDocument(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertChunks(ctx, []*models.ChunkRow{
		row("docs", "a.txt", "a.txt_0_0", "a0"),
		row("docs", "a.txt", "a.txt_0_1", "a1"),
		row("docs", "b.txt", "b.txt_1_0", "b0"),
		row("other", "a.txt", "x_a.txt_0_0", "other collection"),
	}))

	var seen []string
	out, err := s.DeleteDocument(ctx, "docs", "a.txt", func(_ context.Context, ids []string) error {
		seen = ids
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Deleted)
	assert.Equal(t, []string{"a.txt_0_0", "a.txt_0_1"}, seen)

	remaining, err := s.ChunksByDocument(ctx, "docs", "a.txt")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	n, err := s.CountChunks(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSQLStore_DeleteUnknownDocument(t *testing.T) {
	s := openTestStore(t)
	called := false
	out, err := s.DeleteDocument(context.Background(), "docs", "missing.pdf", func(context.Context, []string) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, out.Deleted)
	assert.Empty(t, out.ChunkIDs)
	assert.False(t, called)
}

func TestSQLStore_DeleteRollsBackOnHookError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertChunks(ctx, []*models.ChunkRow{row("docs", "a.txt", "a.txt_0_0", "a0")}))

	hookErr := errors.New("vector store down")
	_, err := s.DeleteDocument(ctx, "docs", "a.txt", func(context.Context, []string) error { return hookErr })
	require.ErrorIs(t, err, hookErr)

	rows, err := s.ChunksByDocument(ctx, "docs", "a.txt")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSQLStore_GetChunkNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetChunk(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrChunkNotFound)
}

func TestSQLStore_ListDocuments(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	parent := row("docs", "a.txt", "parent_a.txt_0_0", "p")
	parent.Metadata.IsParent = models.BoolPtr(true)
	require.NoError(t, s.UpsertChunks(ctx, []*models.ChunkRow{
		parent,
		row("docs", "b.txt", "b.txt_1_0", "b0"),
		row("docs", "b.txt", "b.txt_1_1", "b1"),
	}))

	docs, err := s.ListDocuments(ctx, "docs", 0, 10)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a.txt", docs[0].DocumentID)
	assert.Equal(t, int64(1), docs[0].Parents)
	assert.Equal(t, "b.txt", docs[1].DocumentID)
	assert.Equal(t, int64(2), docs[1].Chunks)
	assert.False(t, docs[1].LastIngestedAt.IsZero())

	page, err := s.ListDocuments(ctx, "docs", 1, 10)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestDialect_rebind(t *testing.T) {
	pg := dialect{driver: DriverPostgres}
	assert.Equal(t,
		`SELECT a FROM t WHERE x = $1 AND y = '?' AND z = $2`,
		pg.rebind(`SELECT a FROM t WHERE x = ? AND y = '?' AND z = ?`))

	lite := dialect{driver: DriverSQLite}
	assert.Equal(t, `x = ?`, lite.rebind(`x = ?`))

	_, err := newDialect("mysql")
	assert.Error(t, err)
}
