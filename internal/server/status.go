package server

import (
	"context"
	"fmt"

	"github.com/hyperjump/shiryo/internal/config"
	"github.com/hyperjump/shiryo/internal/storage"
	"github.com/hyperjump/shiryo/internal/vector"
)

// Status describes the stores behind a collection.
type Status struct {
	Collection      string        `json:"collection"`
	Chunks          int64         `json:"chunks"`
	AllChunks       int64         `json:"all_chunks"`
	VectorIndexSize int           `json:"vector_index_size"`
	DiskUsageBytes  *int64        `json:"disk_usage_bytes,omitempty"`
	Config          *StatusConfig `json:"config,omitempty"`
}

// StatusConfig is the subset of configuration reported by status.
type StatusConfig struct {
	StorageDriver       string `json:"storage_driver"`
	DatabasePath        string `json:"database_path,omitempty"`
	VectorIndexType     string `json:"vector_index_type"`
	VectorIndexPath     string `json:"vector_index_path,omitempty"`
	EmbeddingProvider   string `json:"embedding_provider"`
	EmbeddingDimensions int    `json:"embedding_dimensions"`
	ChunkSize           int    `json:"chunk_size"`
	ChunkOverlap        int    `json:"chunk_overlap"`
	ParentChild         bool   `json:"enable_parent_child_chunking"`
	JapaneseSearch      bool   `json:"enable_japanese_search"`
	Splitter            string `json:"splitter"`
}

// CollectStatus counts rows and vectors. vectors may be nil.
func CollectStatus(ctx context.Context, keywords storage.ChunkStore, vectors vector.Store, cfg *config.Config) (*Status, error) {
	collection := cfg.Ingestion.CollectionName
	chunks, err := keywords.CountChunks(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	all, err := keywords.CountChunks(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	st := &Status{Collection: collection, Chunks: chunks, AllChunks: all}
	if vectors != nil {
		st.VectorIndexSize = vectors.Size()
	}

	var paths []string
	if cfg.Storage.Driver == "sqlite3" {
		paths = append(paths, cfg.Storage.DatabasePath)
	}
	if cfg.Vector.IndexType == "memory" {
		paths = append(paths, cfg.Vector.IndexPath)
	}
	if len(paths) > 0 {
		if n, err := storage.DiskUsageBytes(paths...); err == nil {
			st.DiskUsageBytes = &n
		}
	}

	st.Config = &StatusConfig{
		StorageDriver:       cfg.Storage.Driver,
		VectorIndexType:     cfg.Vector.IndexType,
		EmbeddingProvider:   cfg.Embedding.Provider,
		EmbeddingDimensions: cfg.Embedding.Dimensions,
		ChunkSize:           cfg.Ingestion.ChunkSize,
		ChunkOverlap:        cfg.Ingestion.ChunkOverlap,
		ParentChild:         cfg.Ingestion.EnableParentChildChunking,
		JapaneseSearch:      cfg.Ingestion.EnableJapaneseSearch,
		Splitter:            cfg.Ingestion.Splitter,
	}
	if cfg.Storage.Driver == "sqlite3" {
		st.Config.DatabasePath = cfg.Storage.DatabasePath
	}
	if cfg.Vector.IndexType == "memory" {
		st.Config.VectorIndexPath = cfg.Vector.IndexPath
	}
	return st, nil
}
