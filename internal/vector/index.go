// Package vector keeps chunk embeddings searchable by similarity.
package vector

import (
	"context"

	"github.com/hyperjump/shiryo/internal/models"
)

// VectorIndex stores raw vectors keyed by chunk id. Add overwrites existing ids.
type VectorIndex interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Remove(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	Size() int
	Close() error
}

// VectorResult is a single vector search hit.
type VectorResult struct {
	ID    string
	Score float64 // cosine similarity for normalized vectors
}

// Store is the vector side of ingestion: chunks go in under caller-chosen ids, ids come out.
type Store interface {
	AddDocuments(ctx context.Context, chunks []*models.Chunk, ids []string) error
	Delete(ctx context.Context, ids []string) error
	SimilaritySearch(ctx context.Context, query string, k int) ([]*VectorResult, error)
	Size() int
	Close() error
}
