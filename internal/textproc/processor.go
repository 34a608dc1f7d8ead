package textproc

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"go.uber.org/zap"
)

// Tokenizer names accepted by New.
const (
	TokenizerKagome  = "kagome"
	TokenizerUnicode = "unicode"
)

// Processor normalizes text and, for keyword search, splits it into tokens.
type Processor interface {
	Normalize(text string) string
	Tokenize(text string) []string
}

type processor struct {
	tokenize func(string) []string
	logger   *zap.Logger
}

// Option configures a processor.
type Option func(*processor)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *processor) {
		p.logger = l
	}
}

// New returns a Processor using the named tokenizer. Kagome (IPA dictionary) handles Japanese
// morphology; the unicode tokenizer splits on Unicode word boundaries and is used when the
// dictionary is not wanted.
func New(name string, opts ...Option) (Processor, error) {
	p := &processor{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	switch name {
	case "", TokenizerKagome:
		t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
		if err != nil {
			return nil, fmt.Errorf("create kagome tokenizer: %w", err)
		}
		p.tokenize = t.Wakati
	case TokenizerUnicode:
		u := unicode.NewUnicodeTokenizer()
		p.tokenize = func(s string) []string {
			stream := u.Tokenize([]byte(s))
			out := make([]string, 0, len(stream))
			for _, tok := range stream {
				out = append(out, string(tok.Term))
			}
			return out
		}
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", name)
	}
	p.logger.Debug("text processor ready", zap.String("tokenizer", name))
	return p, nil
}

func (p *processor) Normalize(text string) string {
	return Normalize(text)
}

// Tokenize returns the non-blank tokens of text in order.
func (p *processor) Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	raw := p.tokenize(text)
	tokens := raw[:0]
	for _, t := range raw {
		if strings.TrimSpace(t) != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
