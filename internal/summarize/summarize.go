// Package summarize describes images extracted from documents so they can be indexed as text.
package summarize

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ImageSummarizer turns an image file into a text description.
type ImageSummarizer interface {
	SummarizeImage(ctx context.Context, path string) (string, error)
}

const defaultPrompt = "Describe this image from a document in detail so it can be found by search. " +
	"Include any visible text, numbers, labels and what a chart or diagram shows."

// maxImageBytes bounds what is sent to the vision model.
const maxImageBytes = 20 << 20

// OpenAISummarizer asks an OpenAI vision model to describe images.
type OpenAISummarizer struct {
	client    *openai.Client
	baseURL   string
	model     string
	prompt    string
	maxTokens int
	logger    *zap.Logger
}

// Option configures an OpenAISummarizer.
type Option func(*OpenAISummarizer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *OpenAISummarizer) {
		s.logger = l
	}
}

// WithPrompt replaces the default instruction sent with each image.
func WithPrompt(p string) Option {
	return func(s *OpenAISummarizer) {
		if p != "" {
			s.prompt = p
		}
	}
}

// WithBaseURL points the client at an OpenAI-compatible server.
func WithBaseURL(u string) Option {
	return func(s *OpenAISummarizer) {
		s.baseURL = u
	}
}

// NewOpenAISummarizer creates a summarizer for the given model (gpt-4o-mini by default).
func NewOpenAISummarizer(apiKey, model string, opts ...Option) (*OpenAISummarizer, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	s := &OpenAISummarizer{
		model:     model,
		prompt:    defaultPrompt,
		maxTokens: 512,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	cfg := openai.DefaultConfig(apiKey)
	if s.baseURL != "" {
		cfg.BaseURL = s.baseURL
	}
	s.client = openai.NewClientWithConfig(cfg)
	return s, nil
}

// SummarizeImage sends the image as a data URL and returns the model's description.
func (s *OpenAISummarizer) SummarizeImage(ctx context.Context, path string) (string, error) {
	url, err := dataURL(path)
	if err != nil {
		return "", err
	}
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: s.prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    url,
					Detail: openai.ImageURLDetailAuto,
				}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("summarize %s: %w", filepath.Base(path), err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarize %s: empty response", filepath.Base(path))
	}
	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	s.logger.Debug("image summarized",
		zap.String("path", path),
		zap.Int("chars", len(summary)),
		zap.Int("tokens", resp.Usage.TotalTokens))
	return summary, nil
}

func dataURL(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat image: %w", err)
	}
	if info.Size() > maxImageBytes {
		return "", fmt.Errorf("image %s is %d bytes, limit is %d", filepath.Base(path), info.Size(), maxImageBytes)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if !strings.HasPrefix(mt, "image/") {
		return "", fmt.Errorf("%s is not a supported image type", filepath.Base(path))
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}

// Placeholder describes images without a model: it records that an image was there and where.
// Used when no API key is configured, so image chunks keep their provenance.
type Placeholder struct{}

func (Placeholder) SummarizeImage(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat image: %w", err)
	}
	return "Image: " + filepath.Base(path), nil
}
