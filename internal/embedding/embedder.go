// Package embedding turns chunk text into vectors for the similarity index.
package embedding

import (
	"context"
	"fmt"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Provider names accepted by New.
const (
	ProviderHash      = "hash"
	ProviderOpenAI    = "openai"
	ProviderLangChain = "langchain"
)

// Config selects and configures an embedder.
type Config struct {
	Provider   string
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
	CacheSize  int
}

// New builds the configured embedder, wrapped in an LRU cache when CacheSize > 0.
func New(cfg Config) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch cfg.Provider {
	case "", ProviderHash:
		e = NewHashEmbedder(cfg.Dimensions)
	case ProviderOpenAI:
		e, err = NewOpenAIEmbedder(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Dimensions)
	case ProviderLangChain:
		e, err = NewLangChainEmbedder(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		e = NewCachedEmbedder(e, cfg.CacheSize)
	}
	return e, nil
}
