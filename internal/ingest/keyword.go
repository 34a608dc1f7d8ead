package ingest

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/shiryo/internal/models"
)

// StoreKeywordChunks upserts chunks into the keyword table in one transaction. Content is
// normalized and, with Japanese search enabled, tokenized into space-joined terms.
// Failures are logged and returned; no row of the batch is written.
func (h *Handler) StoreKeywordChunks(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]*models.ChunkRow, 0, len(chunks))
	for _, c := range chunks {
		content := h.normalize(c.Content)
		tokenized := ""
		if h.cfg.EnableJapaneseSearch {
			tokenized = strings.Join(h.processor.Tokenize(content), " ")
		}
		meta := c.Metadata
		rows = append(rows, &models.ChunkRow{
			ChunkID:          meta.ChunkID,
			DocumentID:       meta.DocumentID,
			CollectionName:   h.cfg.CollectionName,
			Content:          content,
			TokenizedContent: tokenized,
			Metadata:         &meta,
		})
	}
	if err := h.keywords.UpsertChunks(ctx, rows); err != nil {
		h.logger.Error("error storing chunks for keyword search", zap.Int("chunks", len(rows)), zap.Error(err))
		return err
	}
	h.logger.Debug("stored chunks for keyword search", zap.Int("chunks", len(rows)))
	return nil
}
