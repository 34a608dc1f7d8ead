// Package storage persists chunks in the relational keyword table used for lexical search.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/shiryo/internal/models"
)

// ErrChunkNotFound is returned when a chunk id has no row.
var ErrChunkNotFound = errors.New("chunk not found")

// BeforeCommit runs inside a delete transaction after the rows are removed but before the
// transaction commits. Returning an error rolls the delete back.
type BeforeCommit func(ctx context.Context, chunkIDs []string) error

// DeleteOutcome reports what a document delete touched.
type DeleteOutcome struct {
	ChunkIDs []string
	Deleted  int64
}

// ChunkStore is the keyword table.
type ChunkStore interface {
	// UpsertChunks writes all rows in one transaction, overwriting rows with the same chunk id.
	UpsertChunks(ctx context.Context, rows []*models.ChunkRow) error
	// DeleteDocument removes every row of a document in a collection. When rows exist,
	// beforeCommit is called with their ids before the delete is committed.
	DeleteDocument(ctx context.Context, collection, documentID string, beforeCommit BeforeCommit) (*DeleteOutcome, error)

	GetChunk(ctx context.Context, chunkID string) (*models.ChunkRow, error)
	ChunksByDocument(ctx context.Context, collection, documentID string) ([]*models.ChunkRow, error)
	ListDocuments(ctx context.Context, collection string, offset, limit int) ([]*models.DocumentSummary, error)
	CountChunks(ctx context.Context, collection string) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
