package ingest

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/hyperjump/shiryo/internal/extract"
	"github.com/hyperjump/shiryo/internal/models"
	"github.com/hyperjump/shiryo/internal/source"
)

// Load reads every path in order. Missing inputs and files that fail to load are logged and
// reported; unsupported extensions are skipped. The returned documents keep input order.
func (h *Handler) Load(ctx context.Context, paths []string) ([]*models.Document, []Outcome) {
	var (
		docs     []*models.Document
		outcomes []Outcome
	)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, Outcome{Kind: KindLoad, Source: p, Err: err})
			break
		}
		loaded, out := h.loadOne(ctx, p)
		if out != nil {
			outcomes = append(outcomes, *out)
			continue
		}
		docs = append(docs, loaded...)
	}
	return docs, outcomes
}

func (h *Handler) loadOne(ctx context.Context, p string) ([]*models.Document, *Outcome) {
	local, cleanup, err := h.resolver.Resolve(ctx, p)
	defer cleanup()
	if errors.Is(err, os.ErrNotExist) {
		h.logger.Warn("file not found", zap.String("path", p))
		return nil, &Outcome{Kind: KindMissingInput, Source: p, Err: err}
	}
	if err != nil {
		h.logger.Error("error resolving source", zap.String("path", p), zap.Error(err), errorType(err))
		return nil, &Outcome{Kind: KindLoad, Source: p, Err: err}
	}

	loaded, err := h.loader.Load(ctx, local)
	if errors.Is(err, extract.ErrUnsupported) {
		h.logger.Debug("skipping unsupported file", zap.String("path", p))
		return nil, nil
	}
	if err != nil {
		h.logger.Error("error loading document", zap.String("path", p), zap.Error(err), errorType(err))
		return nil, &Outcome{Kind: KindLoad, Source: p, Err: err}
	}
	if source.IsRemote(p) {
		for _, d := range loaded {
			d.Source = p
		}
	}
	h.logger.Debug("loaded", zap.String("path", p), zap.Int("documents", len(loaded)))
	return loaded, nil
}
