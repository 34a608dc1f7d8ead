package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var errEmptyID = errors.New("document ID cannot be empty")

// Delete removes every chunk of documentID from both stores. The keyword rows are deleted in
// a transaction that only commits after the vector delete succeeds.
func (h *Handler) Delete(ctx context.Context, documentID string) DeleteResult {
	if documentID == "" {
		return DeleteResult{Message: "Document ID cannot be empty.", Kind: KindEmptyID, Err: errEmptyID}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var vectorErr error
	removeVectors := func(ctx context.Context, ids []string) error {
		if h.vectors == nil {
			return nil
		}
		vectorErr = h.vectors.Delete(ctx, ids)
		return vectorErr
	}

	out, err := h.keywords.DeleteDocument(ctx, h.cfg.CollectionName, documentID, removeVectors)
	if err != nil {
		kind := KindDelete
		if vectorErr != nil {
			kind = KindVectorStore
		}
		h.logger.Error("deletion failed",
			zap.String("document_id", documentID), zap.String("kind", string(kind)), zap.Error(err))
		return DeleteResult{Message: fmt.Sprintf("Deletion error: %v", err), Kind: kind, Err: err}
	}
	if len(out.ChunkIDs) == 0 {
		return DeleteResult{Success: true, Message: fmt.Sprintf("No chunks found for document ID '%s'.", documentID)}
	}
	h.logger.Info("document deleted", zap.String("document_id", documentID), zap.Int64("chunks", out.Deleted))
	return DeleteResult{
		Success:  true,
		Message:  fmt.Sprintf("Deleted %d chunks for document ID '%s'.", out.Deleted, documentID),
		Deleted:  out.Deleted,
		ChunkIDs: out.ChunkIDs,
	}
}
