package config

import (
	"errors"
	"fmt"
	"slices"
)

const dataDir = "/usr/local/var/shiryo/data"

// ApplyDefaults sets default values for any zero values in cfg. Overlaps are only defaulted
// together with their size, so an explicit overlap of 0 is kept.
func ApplyDefaults(cfg *Config) {
	in := &cfg.Ingestion
	if in.CollectionName == "" {
		in.CollectionName = "documents"
	}
	if in.ChunkSize == 0 {
		in.ChunkSize = 1000
		if in.ChunkOverlap == 0 {
			in.ChunkOverlap = 200
		}
	}
	if in.ParentChunkSize == 0 {
		in.ParentChunkSize = 2000
		if in.ParentChunkOverlap == 0 {
			in.ParentChunkOverlap = 200
		}
	}
	if in.ChildChunkSize == 0 {
		in.ChildChunkSize = 400
		if in.ChildChunkOverlap == 0 {
			in.ChildChunkOverlap = 50
		}
	}
	if in.Splitter == "" {
		in.Splitter = "window"
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite3"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = dataDir + "/db/chunks.db"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = dataDir + "/uploads"
	}

	if cfg.Vector.IndexType == "" {
		cfg.Vector.IndexType = "memory"
	}
	if cfg.Vector.IndexType == "memory" && cfg.Vector.IndexPath == "" {
		cfg.Vector.IndexPath = dataDir + "/indices/vectors.bin"
	}
	if cfg.Vector.Table == "" {
		cfg.Vector.Table = "chunk_vectors"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "hash"
	}
	if cfg.Embedding.Dimensions == 0 {
		switch cfg.Embedding.Provider {
		case "openai", "langchain":
			cfg.Embedding.Dimensions = 1536
		default:
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}

	if cfg.Parser.ImageSummarizer == "" {
		cfg.Parser.ImageSummarizer = "placeholder"
	}
	if cfg.Parser.VisionModel == "" {
		cfg.Parser.VisionModel = "gpt-4o-mini"
	}
	if cfg.Text.Tokenizer == "" {
		cfg.Text.Tokenizer = "kagome"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}

	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx", ".pptx", ".rtf", ".odt", ".doc"}
	}
	if cfg.Watch.DebounceMillis == 0 {
		cfg.Watch.DebounceMillis = 500
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	in := c.Ingestion
	checkPair := func(name string, size, overlap int) {
		if size <= 0 {
			errs = append(errs, fmt.Errorf("ingestion.%s_size must be positive", name))
		} else if overlap < 0 || overlap >= size {
			errs = append(errs, fmt.Errorf("ingestion.%s_overlap must be >= 0 and < %s_size", name, name))
		}
	}
	checkPair("chunk", in.ChunkSize, in.ChunkOverlap)
	if in.EnableParentChildChunking {
		checkPair("parent_chunk", in.ParentChunkSize, in.ParentChunkOverlap)
		checkPair("child_chunk", in.ChildChunkSize, in.ChildChunkOverlap)
	}
	if !slices.Contains([]string{"window", "recursive"}, in.Splitter) {
		errs = append(errs, fmt.Errorf("ingestion.splitter %q is not window or recursive", in.Splitter))
	}

	switch c.Storage.Driver {
	case "sqlite3":
	case "pgx":
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn (or %s) is required for pgx", EnvDatabaseDSN))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not sqlite3 or pgx", c.Storage.Driver))
	}

	switch c.Vector.IndexType {
	case "memory":
	case "pgvector":
		if c.Vector.DSN == "" {
			errs = append(errs, fmt.Errorf("vector.dsn (or %s) is required for pgvector", EnvVectorDSN))
		}
	default:
		errs = append(errs, fmt.Errorf("vector.index_type %q is not memory or pgvector", c.Vector.IndexType))
	}

	if c.Embedding.Provider == "openai" && c.Embedding.APIKey == "" {
		errs = append(errs, fmt.Errorf("%s is required for the openai embedder", EnvOpenAIKey))
	}
	if c.Parser.ImageSummarizer == "openai" && c.Embedding.APIKey == "" {
		errs = append(errs, fmt.Errorf("%s is required for the openai image summarizer", EnvOpenAIKey))
	}
	return errors.Join(errs...)
}
