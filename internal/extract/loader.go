// Package extract loads source files into documents: text per page or file, image summaries
// and markdown tables.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/shiryo/internal/models"
	"github.com/hyperjump/shiryo/internal/summarize"
)

// ErrUnsupported is returned for file extensions no loader handles.
var ErrUnsupported = errors.New("unsupported file type")

// Loader dispatches a file to the loader for its extension.
type Loader struct {
	parser     Parser
	summarizer summarize.ImageSummarizer
	formatter  TableFormatter
	legacyDoc  bool
	logger     *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) {
		ld.logger = l
	}
}

// WithParser sets the PDF element parser.
func WithParser(p Parser) Option {
	return func(ld *Loader) {
		ld.parser = p
	}
}

// WithSummarizer sets the image summarizer used for PDF images.
func WithSummarizer(s summarize.ImageSummarizer) Option {
	return func(ld *Loader) {
		ld.summarizer = s
	}
}

// WithTableFormatter sets the table renderer.
func WithTableFormatter(f TableFormatter) Option {
	return func(ld *Loader) {
		ld.formatter = f
	}
}

// WithLegacyDoc forces .doc support on or off. By default it is on when wvText is on PATH.
func WithLegacyDoc(enabled bool) Option {
	return func(ld *Loader) {
		ld.legacyDoc = enabled
	}
}

// NewLoader returns a loader using ledongthuc/pdf for PDFs, placeholder image summaries and
// markdown tables unless overridden.
func NewLoader(opts ...Option) *Loader {
	ld := &Loader{
		parser:     NewPDFParser(),
		summarizer: summarize.Placeholder{},
		formatter:  MarkdownFormatter{},
		legacyDoc:  legacyDocAvailable(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

func legacyDocAvailable() bool {
	_, err := exec.LookPath("wvText")
	return err == nil
}

// Supports reports whether path has an extension the loader handles.
func (l *Loader) Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md", ".docx", ".xlsx", ".pptx", ".rtf", ".odt":
		return true
	case ".doc":
		return l.legacyDoc
	}
	return false
}

// Load reads the file at path into documents. PDFs yield their text elements, then image
// summaries, then tables. A .doc file without legacy support yields no documents and no error.
func (l *Loader) Load(ctx context.Context, path string) ([]*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return l.loadPDF(ctx, path)
	case ".txt", ".md":
		return l.loadBytes(path, decodeText)
	case ".docx":
		return l.loadBytes(path, extractDOCX)
	case ".pptx":
		return loadPPTX(path)
	case ".xlsx":
		return l.loadWorkbook(path)
	case ".rtf", ".odt":
		return single(path, extractWithCat)
	case ".doc":
		if !l.legacyDoc {
			l.logger.Debug("skipping .doc, wvText not available", zap.String("path", path))
			return nil, nil
		}
		return single(path, extractLegacyDoc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

func (l *Loader) loadBytes(path string, extract func([]byte) (string, error)) ([]*models.Document, error) {
	return single(path, func(p string) (string, error) {
		content, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return extract(content)
	})
}

func single(path string, extract func(string) (string, error)) ([]*models.Document, error) {
	text, err := extract(path)
	if err != nil {
		return nil, err
	}
	return []*models.Document{{Content: text, Source: path, Type: models.TypeText}}, nil
}

func (l *Loader) loadPDF(ctx context.Context, path string) ([]*models.Document, error) {
	elems, err := l.parser.ParsePDF(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("parse PDF: %w", err)
	}
	docs := make([]*models.Document, 0, len(elems.Texts)+len(elems.Images)+len(elems.Tables))
	for _, t := range elems.Texts {
		docs = append(docs, &models.Document{Content: t.Text, Source: path, Type: models.TypeText, Page: t.Page})
	}

	if len(elems.Images) > 0 {
		l.logger.Info("summarizing images", zap.String("path", path), zap.Int("images", len(elems.Images)))
	}
	for _, img := range elems.Images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		summary, err := l.summarizer.SummarizeImage(ctx, img.Path)
		if err != nil {
			l.logger.Warn("image summary failed",
				zap.String("path", path), zap.String("image", img.Path), zap.Error(err))
			continue
		}
		docs = append(docs, &models.Document{
			Content:           summary,
			Source:            path,
			Type:              models.TypeImageSummary,
			Page:              img.Page,
			OriginalImagePath: img.Path,
		})
	}

	for _, tbl := range elems.Tables {
		md := l.formatter.FormatMarkdown(tbl)
		if md == "" {
			continue
		}
		docs = append(docs, &models.Document{Content: md, Source: path, Type: models.TypeTable, Page: tbl.Page})
	}
	l.logger.Debug("PDF loaded",
		zap.String("path", path),
		zap.Int("texts", len(elems.Texts)),
		zap.Int("images", len(elems.Images)),
		zap.Int("tables", len(elems.Tables)))
	return docs, nil
}
