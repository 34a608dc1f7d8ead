package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/hyperjump/shiryo/pkg/utils"
)

// LangChainEmbedder talks to OpenAI-compatible embedding servers (for example a local model
// host) through langchaingo.
type LangChainEmbedder struct {
	embedder embeddings.Embedder
	dim      int
}

// NewLangChainEmbedder creates an embedder against baseURL. Local servers that need no
// authentication can be given an empty token.
func NewLangChainEmbedder(baseURL, token, model string, dimensions int) (*LangChainEmbedder, error) {
	if baseURL == "" {
		return nil, errors.New("langchain embedder needs a base URL")
	}
	if dimensions <= 0 {
		return nil, errors.New("langchain embedder needs explicit dimensions")
	}
	if token == "" {
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create langchain client: %w", err)
	}
	e, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create langchain embedder: %w", err)
	}
	return &LangChainEmbedder{embedder: e, dim: dimensions}, nil
}

func (e *LangChainEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *LangChainEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("langchain embeddings: %w", err)
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("langchain embeddings: got %d vectors for %d texts", len(out), len(texts))
	}
	for _, v := range out {
		utils.NormalizeL2(v)
	}
	return out, nil
}

func (e *LangChainEmbedder) Dimensions() int {
	return e.dim
}

func (e *LangChainEmbedder) Close() error {
	return nil
}
