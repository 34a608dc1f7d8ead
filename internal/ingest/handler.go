// Package ingest loads documents, chunks them and keeps the vector index and keyword table in
// step under ingest and delete.
package ingest

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/shiryo/internal/models"
	"github.com/hyperjump/shiryo/internal/source"
	"github.com/hyperjump/shiryo/internal/splitter"
	"github.com/hyperjump/shiryo/internal/storage"
	"github.com/hyperjump/shiryo/internal/textproc"
	"github.com/hyperjump/shiryo/internal/vector"
)

// DocumentLoader reads one local file into documents.
type DocumentLoader interface {
	Load(ctx context.Context, path string) ([]*models.Document, error)
}

// Handler runs ingestion and deletion for one collection. Ingest and Delete are serialized.
type Handler struct {
	cfg       Config
	keywords  storage.ChunkStore
	vectors   vector.Store
	loader    DocumentLoader
	processor textproc.Processor
	resolver  *source.Resolver
	logger    *zap.Logger

	standard splitter.Splitter
	parents  splitter.Splitter
	children splitter.Splitter

	mu sync.Mutex
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// WithProcessor sets the text processor. Without one, text is normalized and never tokenized.
func WithProcessor(p textproc.Processor) Option {
	return func(h *Handler) {
		h.processor = p
	}
}

// WithResolver sets how inputs are mapped to local files (for example s3:// sources).
func WithResolver(r *source.Resolver) Option {
	return func(h *Handler) {
		h.resolver = r
	}
}

// New creates a handler. vectors may be nil, in which case deletion only touches the keyword
// table and ingestion skips the vector write.
func New(cfg Config, keywords storage.ChunkStore, vectors vector.Store, loader DocumentLoader, opts ...Option) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ingestion config: %w", err)
	}
	if keywords == nil {
		return nil, fmt.Errorf("keyword store is required")
	}
	if loader == nil {
		return nil, fmt.Errorf("document loader is required")
	}
	h := &Handler{
		cfg:      cfg,
		keywords: keywords,
		vectors:  vectors,
		loader:   loader,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.resolver == nil {
		h.resolver = source.NewResolver(source.WithLogger(h.logger))
	}
	if cfg.EnableJapaneseSearch && h.processor == nil {
		return nil, fmt.Errorf("japanese search needs a text processor")
	}

	var err error
	if cfg.EnableParentChildChunking {
		if h.parents, err = splitter.New(cfg.Splitter, cfg.ParentChunkSize, cfg.ParentChunkOverlap); err != nil {
			return nil, fmt.Errorf("parent splitter: %w", err)
		}
		if h.children, err = splitter.New(cfg.Splitter, cfg.ChildChunkSize, cfg.ChildChunkOverlap); err != nil {
			return nil, fmt.Errorf("child splitter: %w", err)
		}
	} else if h.standard, err = splitter.New(cfg.Splitter, cfg.ChunkSize, cfg.ChunkOverlap); err != nil {
		return nil, fmt.Errorf("splitter: %w", err)
	}
	return h, nil
}

// Config returns the handler's configuration.
func (h *Handler) Config() Config {
	return h.cfg
}

func (h *Handler) normalize(text string) string {
	if h.processor != nil {
		return h.processor.Normalize(text)
	}
	return textproc.Normalize(text)
}
