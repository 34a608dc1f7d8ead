package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/shiryo/internal/models"
)

// Ingest loads, chunks and stores the files at paths. Storage failures are logged and recorded
// in the report rather than returned. When the vector write fails the keyword write is skipped.
func (h *Handler) Ingest(ctx context.Context, paths []string) *Report {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := &Report{RunID: uuid.NewString(), StartedAt: time.Now()}
	defer func() { r.FinishedAt = time.Now() }()
	log := h.logger.With(zap.String("run_id", r.RunID))

	log.Info("loading documents", zap.Int("paths", len(paths)))
	docs, outcomes := h.Load(ctx, paths)
	r.Outcomes = append(r.Outcomes, outcomes...)
	r.DocumentsLoaded = len(docs)
	if len(docs) == 0 {
		log.Info("no documents loaded")
		return r
	}

	log.Info("chunking documents", zap.Int("documents", len(docs)))
	res := h.chunk(ctx, docs)
	r.Outcomes = append(r.Outcomes, res.outcomes...)
	r.ParentsStored = res.parentsStored

	valid := make([]*models.Chunk, 0, len(res.chunks))
	for _, c := range res.chunks {
		if strings.TrimSpace(c.Content) != "" {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		log.Info("no valid chunks to ingest")
		return r
	}

	ids := make([]string, len(valid))
	for i, c := range valid {
		ids[i] = c.ID()
	}
	log.Info("ingesting chunks", zap.Int("chunks", len(valid)))

	if h.vectors != nil {
		if err := h.vectors.AddDocuments(ctx, valid, ids); err != nil {
			log.Error("error during vector ingestion", zap.Error(err))
			r.Outcomes = append(r.Outcomes, Outcome{Kind: KindVectorStore, Err: err})
			h.rollbackVectors(ctx, log, r, ids)
			return r
		}
	}
	if err := h.StoreKeywordChunks(ctx, valid); err != nil {
		r.Outcomes = append(r.Outcomes, Outcome{Kind: KindKeywordStore, Err: err})
		h.rollbackVectors(ctx, log, r, ids)
		return r
	}

	r.ChunksIngested = len(valid)
	log.Info("successfully ingested chunks",
		zap.Int("chunks", len(valid)),
		zap.Int("parents", r.ParentsStored),
		zap.Int("failures", len(r.Outcomes)))
	return r
}

// rollbackVectors removes ids from the vector index after a failed write, when enabled, so
// no id is left in the index without a keyword row.
func (h *Handler) rollbackVectors(ctx context.Context, log *zap.Logger, r *Report, ids []string) {
	if !h.cfg.RollbackVectorOnFailure || h.vectors == nil {
		return
	}
	if err := h.vectors.Delete(ctx, ids); err != nil {
		log.Error("error rolling back vectors", zap.Error(err))
		r.Outcomes = append(r.Outcomes, Outcome{Kind: KindVectorStore, Source: "rollback", Err: err})
		return
	}
	log.Warn("rolled back vectors after failed write", zap.Int("chunks", len(ids)))
}
