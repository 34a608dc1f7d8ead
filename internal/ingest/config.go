package ingest

import (
	"errors"
	"fmt"

	"github.com/hyperjump/shiryo/internal/splitter"
)

// Config is the chunking and storage behavior of a Handler. It is copied on construction.
type Config struct {
	CollectionName string

	ChunkSize    int
	ChunkOverlap int

	EnableParentChildChunking bool
	ParentChunkSize           int
	ParentChunkOverlap        int
	ChildChunkSize            int
	ChildChunkOverlap         int

	EnableJapaneseSearch bool

	// Splitter is "window" (default) or "recursive".
	Splitter string

	// RollbackVectorOnFailure deletes the batch ids from the vector index when the vector or
	// keyword write fails, so a partial vector add does not leave orphaned ids.
	RollbackVectorOnFailure bool
}

// DefaultConfig returns the standard chunking settings.
func DefaultConfig() Config {
	return Config{
		CollectionName:     "documents",
		ChunkSize:          1000,
		ChunkOverlap:       200,
		ParentChunkSize:    2000,
		ParentChunkOverlap: 200,
		ChildChunkSize:     400,
		ChildChunkOverlap:  50,
		Splitter:           splitter.KindWindow,
	}
}

// Validate checks sizes and overlaps for the selected chunking mode.
func (c Config) Validate() error {
	if c.CollectionName == "" {
		return errors.New("collection name is required")
	}
	check := func(name string, size, overlap int) error {
		if size <= 0 {
			return fmt.Errorf("%s size must be positive", name)
		}
		if overlap < 0 || overlap >= size {
			return fmt.Errorf("%s overlap must be >= 0 and < size (%d)", name, size)
		}
		return nil
	}
	if c.EnableParentChildChunking {
		if err := check("parent chunk", c.ParentChunkSize, c.ParentChunkOverlap); err != nil {
			return err
		}
		return check("child chunk", c.ChildChunkSize, c.ChildChunkOverlap)
	}
	return check("chunk", c.ChunkSize, c.ChunkOverlap)
}
