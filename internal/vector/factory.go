package vector

import (
	"context"
	"fmt"
)

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses in-memory brute-force search persisted to a file.
	IndexTypeMemory IndexType = "memory"
	// IndexTypePGVector stores vectors in PostgreSQL with the pgvector extension.
	IndexTypePGVector IndexType = "pgvector"
)

// IndexConfig selects a vector index.
type IndexConfig struct {
	Type       string
	Dimensions int
	DSN        string
	Table      string
}

// NewVectorIndex creates a vector index of the specified type.
// Supported types: "memory" (default), "pgvector".
func NewVectorIndex(ctx context.Context, cfg IndexConfig) (VectorIndex, error) {
	switch IndexType(cfg.Type) {
	case IndexTypeMemory, "":
		return NewMemoryIndex(cfg.Dimensions)
	case IndexTypePGVector:
		return NewPGVectorIndex(ctx, cfg.DSN, cfg.Table, cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, pgvector)", cfg.Type)
	}
}
