package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/shiryo/internal/config"
	"github.com/hyperjump/shiryo/internal/embedding"
	"github.com/hyperjump/shiryo/internal/extract"
	"github.com/hyperjump/shiryo/internal/ingest"
	"github.com/hyperjump/shiryo/internal/source"
	"github.com/hyperjump/shiryo/internal/storage"
	"github.com/hyperjump/shiryo/internal/summarize"
	"github.com/hyperjump/shiryo/internal/textproc"
	"github.com/hyperjump/shiryo/internal/vector"
)

// Components holds the stores and the ingestion handler built from config.
type Components struct {
	Keywords *storage.SQLStore
	Vectors  *vector.EmbeddingStore
	Handler  *ingest.Handler
}

// Close closes the stores.
func (c *Components) Close() error {
	var errs []error
	if c.Vectors != nil {
		errs = append(errs, c.Vectors.Close())
	}
	if c.Keywords != nil {
		errs = append(errs, c.Keywords.Close())
	}
	return errors.Join(errs...)
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *Components, err error) {
	c := &Components{}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	c.Keywords, err = storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.DataSource(), storage.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword table: %w", err)
	}

	embedder, err := embedding.New(embedding.Config{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Dimensions: cfg.Embedding.Dimensions,
		CacheSize:  cfg.Embedding.CacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	index, err := vector.NewVectorIndex(ctx, vector.IndexConfig{
		Type:       cfg.Vector.IndexType,
		Dimensions: embedder.Dimensions(),
		DSN:        cfg.Vector.DSN,
		Table:      cfg.Vector.Table,
	})
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	storeOpts := []vector.StoreOption{vector.WithLogger(logger)}
	if cfg.Vector.IndexType == string(vector.IndexTypeMemory) {
		storeOpts = append(storeOpts, vector.WithPersistPath(cfg.Vector.IndexPath))
	}
	c.Vectors, err = vector.NewEmbeddingStore(embedder, index, storeOpts...)
	if err != nil {
		_ = index.Close()
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	logger.Info("vector store initialized",
		zap.String("type", cfg.Vector.IndexType),
		zap.String("embedder", cfg.Embedding.Provider),
		zap.Int("vectors", c.Vectors.Size()))

	processor, err := textproc.New(cfg.Text.Tokenizer, textproc.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize text processor: %w", err)
	}

	loaderOpts := []extract.Option{extract.WithLogger(logger)}
	if cfg.Parser.ImageSummarizer == "openai" {
		s, err := summarize.NewOpenAISummarizer(cfg.Embedding.APIKey, cfg.Parser.VisionModel, summarize.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize image summarizer: %w", err)
		}
		loaderOpts = append(loaderOpts, extract.WithSummarizer(s))
	}
	if cfg.Parser.LegacyDoc != nil {
		loaderOpts = append(loaderOpts, extract.WithLegacyDoc(*cfg.Parser.LegacyDoc))
	}

	resolverOpts := []source.Option{source.WithLogger(logger)}
	fetcher, err := source.NewS3Fetcher(ctx, source.S3Config{Region: cfg.S3.Region, Endpoint: cfg.S3.Endpoint})
	if err != nil {
		logger.Warn("s3 sources disabled", zap.Error(err))
	} else {
		resolverOpts = append(resolverOpts, source.WithFetcher(fetcher))
	}

	c.Handler, err = ingest.New(handlerConfig(cfg.Ingestion), c.Keywords, c.Vectors, extract.NewLoader(loaderOpts...),
		ingest.WithLogger(logger),
		ingest.WithProcessor(processor),
		ingest.WithResolver(source.NewResolver(resolverOpts...)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ingestion: %w", err)
	}
	return c, nil
}

func handlerConfig(in config.IngestionConfig) ingest.Config {
	return ingest.Config{
		CollectionName:            in.CollectionName,
		ChunkSize:                 in.ChunkSize,
		ChunkOverlap:              in.ChunkOverlap,
		EnableParentChildChunking: in.EnableParentChildChunking,
		ParentChunkSize:           in.ParentChunkSize,
		ParentChunkOverlap:        in.ParentChunkOverlap,
		ChildChunkSize:            in.ChildChunkSize,
		ChildChunkOverlap:         in.ChildChunkOverlap,
		EnableJapaneseSearch:      in.EnableJapaneseSearch,
		Splitter:                  in.Splitter,
		RollbackVectorOnFailure:   in.RollbackVectorOnFailure,
	}
}
