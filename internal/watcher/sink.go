package watcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/hyperjump/shiryo/internal/chunkid"
	"github.com/hyperjump/shiryo/internal/ingest"
)

// Ingester is the part of ingest.Handler the watcher drives.
type Ingester interface {
	Ingest(ctx context.Context, paths []string) *ingest.Report
	Delete(ctx context.Context, documentID string) ingest.DeleteResult
}

// HandlerSink ingests and deletes through an Ingester.
type HandlerSink struct {
	handler Ingester
	logger  *zap.Logger
}

// NewHandlerSink wraps h. logger may be nil.
func NewHandlerSink(h Ingester, logger *zap.Logger) *HandlerSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HandlerSink{handler: h, logger: logger}
}

// Upsert replaces each file's document: chunk ids depend on the file's position in the batch
// and on its current length, so the old rows are deleted before the batch is ingested.
func (s *HandlerSink) Upsert(ctx context.Context, paths []string) {
	for _, p := range paths {
		if res := s.handler.Delete(ctx, chunkid.DocumentID(p, 0)); !res.Success {
			s.logger.Warn("could not clear previous version", zap.String("path", p), zap.String("message", res.Message))
		}
	}
	r := s.handler.Ingest(ctx, paths)
	s.logger.Info("watch batch ingested",
		zap.String("run_id", r.RunID),
		zap.Int("files", len(paths)),
		zap.Int("documents", r.DocumentsLoaded),
		zap.Int("chunks", r.ChunksIngested),
		zap.Strings("failures", r.Failures()))
}

// Remove deletes the document ingested from path.
func (s *HandlerSink) Remove(ctx context.Context, path string) {
	res := s.handler.Delete(ctx, chunkid.DocumentID(path, 0))
	if !res.Success {
		s.logger.Error("watch delete failed", zap.String("path", path), zap.String("message", res.Message))
		return
	}
	s.logger.Info("watch delete", zap.String("path", path), zap.String("message", res.Message))
}
