package vector

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/shiryo/internal/embedding"
	"github.com/hyperjump/shiryo/internal/models"
)

// EmbeddingStore embeds chunk text and keeps the vectors in a VectorIndex. When a path is
// set, the index is loaded on creation and saved after each write.
type EmbeddingStore struct {
	embedder embedding.Embedder
	index    VectorIndex
	path     string
	logger   *zap.Logger
	mu       sync.Mutex
}

// StoreOption configures an EmbeddingStore.
type StoreOption func(*EmbeddingStore)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *EmbeddingStore) {
		s.logger = l
	}
}

// WithPersistPath saves the index to path after every change.
func WithPersistPath(path string) StoreOption {
	return func(s *EmbeddingStore) {
		s.path = path
	}
}

// NewEmbeddingStore creates a store over index, loading any persisted vectors.
func NewEmbeddingStore(embedder embedding.Embedder, index VectorIndex, opts ...StoreOption) (*EmbeddingStore, error) {
	s := &EmbeddingStore{embedder: embedder, index: index, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if err := index.Load(s.path); err != nil {
		return nil, fmt.Errorf("load vector index: %w", err)
	}
	s.logger.Debug("vector store ready", zap.Int("vectors", index.Size()), zap.String("path", s.path))
	return s, nil
}

// AddDocuments embeds the chunks and stores them under ids. Existing ids are overwritten.
func (s *EmbeddingStore) AddDocuments(ctx context.Context, chunks []*models.Chunk, ids []string) error {
	if len(chunks) != len(ids) {
		return fmt.Errorf("got %d chunks and %d ids", len(chunks), len(ids))
	}
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.Add(ctx, ids, vecs); err != nil {
		return fmt.Errorf("add vectors: %w", err)
	}
	if err := s.index.Save(s.path); err != nil {
		return fmt.Errorf("save vector index: %w", err)
	}
	return nil
}

// Delete removes ids from the index.
func (s *EmbeddingStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.Remove(ctx, ids); err != nil {
		return fmt.Errorf("remove vectors: %w", err)
	}
	if err := s.index.Save(s.path); err != nil {
		return fmt.Errorf("save vector index: %w", err)
	}
	return nil
}

// SimilaritySearch embeds query and returns the k closest chunk ids.
func (s *EmbeddingStore) SimilaritySearch(ctx context.Context, query string, k int) ([]*VectorResult, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.index.Search(ctx, vec, k)
}

func (s *EmbeddingStore) Size() int {
	return s.index.Size()
}

// Close closes the index and the embedder.
func (s *EmbeddingStore) Close() error {
	ierr := s.index.Close()
	eerr := s.embedder.Close()
	if ierr != nil {
		return ierr
	}
	return eerr
}
