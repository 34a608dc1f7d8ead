package ingest

import (
	"context"
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/hyperjump/shiryo/internal/chunkid"
	"github.com/hyperjump/shiryo/internal/models"
)

type chunkResult struct {
	chunks        []*models.Chunk
	parentsStored int
	outcomes      []Outcome
}

// Chunk splits documents with the configured strategy. In parent-child mode the parents are
// written to the keyword table before returning and only children are returned.
func (h *Handler) Chunk(ctx context.Context, docs []*models.Document) ([]*models.Chunk, []Outcome) {
	res := h.chunk(ctx, docs)
	return res.chunks, res.outcomes
}

func (h *Handler) chunk(ctx context.Context, docs []*models.Document) chunkResult {
	if h.cfg.EnableParentChildChunking {
		return h.chunkParentChild(ctx, docs)
	}
	return h.chunkStandard(ctx, docs)
}

// docIdentity returns the source recorded on chunks and the document id for document i.
func docIdentity(d *models.Document, i int) (string, string) {
	src := d.Source
	if src == "" {
		src = fmt.Sprintf("doc_source_%d", i)
	}
	return src, chunkid.DocumentID(src, i)
}

func (h *Handler) baseMetadata(d *models.Document, src, docID string) models.ChunkMetadata {
	m := models.ChunkMetadata{
		DocumentID:        docID,
		Source:            src,
		CollectionName:    h.cfg.CollectionName,
		Type:              d.TypeOrDefault(),
		OriginalImagePath: d.OriginalImagePath,
		Page:              d.Page,
	}
	if len(d.Extra) > 0 {
		m.Extra = maps.Clone(d.Extra)
	}
	return m
}

func (h *Handler) chunkStandard(ctx context.Context, docs []*models.Document) chunkResult {
	var res chunkResult
	for i, d := range docs {
		src, docID := docIdentity(d, i)
		chunks, err := h.splitStandard(ctx, d, i, src, docID)
		if err != nil {
			h.logger.Error("error in standard splitting", zap.String("source", src), zap.Error(err), errorType(err))
			res.outcomes = append(res.outcomes, Outcome{Kind: KindChunking, Source: src, Err: err})
			continue
		}
		res.chunks = append(res.chunks, chunks...)
	}
	return res
}

func (h *Handler) splitStandard(ctx context.Context, d *models.Document, i int, src, docID string) ([]*models.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.Content = h.normalize(d.Content)
	pieces, err := h.standard.Split(d.Content)
	if err != nil {
		return nil, err
	}
	chunks := make([]*models.Chunk, 0, len(pieces))
	for j, piece := range pieces {
		meta := h.baseMetadata(d, src, docID)
		meta.ChunkID = chunkid.Standard(docID, i, j)
		c, err := models.NewChunk(piece, meta)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

func (h *Handler) chunkParentChild(ctx context.Context, docs []*models.Document) chunkResult {
	var (
		res     chunkResult
		parents []*models.Chunk
	)
	for i, d := range docs {
		src, docID := docIdentity(d, i)
		ps, cs, err := h.splitParentChild(ctx, d, i, src, docID)
		if err != nil {
			h.logger.Error("error in parent-child splitting", zap.String("source", src), zap.Error(err), errorType(err))
			res.outcomes = append(res.outcomes, Outcome{Kind: KindChunking, Source: src, Err: err})
			continue
		}
		parents = append(parents, ps...)
		res.chunks = append(res.chunks, cs...)
	}

	if err := h.StoreKeywordChunks(ctx, parents); err != nil {
		// Children are only indexed when their parent row exists.
		h.logger.Warn("dropping children of unstored parents", zap.Int("children", len(res.chunks)))
		res.outcomes = append(res.outcomes, Outcome{Kind: KindKeywordStore, Source: "parent chunks", Err: err})
		res.chunks = nil
		return res
	}
	res.parentsStored = len(parents)
	return res
}

// splitParentChild returns a document's parents and children, or nothing if any step fails.
func (h *Handler) splitParentChild(ctx context.Context, d *models.Document, i int, src, docID string) ([]*models.Chunk, []*models.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	d.Content = h.normalize(d.Content)
	parentPieces, err := h.parents.Split(d.Content)
	if err != nil {
		return nil, nil, err
	}
	var parents, children []*models.Chunk
	for p, parentText := range parentPieces {
		meta := h.baseMetadata(d, src, docID)
		meta.ChunkID = chunkid.Parent(docID, i, p)
		meta.IsParent = models.BoolPtr(true)
		parent, err := models.NewChunk(parentText, meta)
		if err != nil {
			return nil, nil, err
		}
		parents = append(parents, parent)

		childPieces, err := h.children.Split(parentText)
		if err != nil {
			return nil, nil, err
		}
		for c, childText := range childPieces {
			cm := h.baseMetadata(d, src, docID)
			cm.ChunkID = chunkid.Child(parent.ID(), c)
			cm.ParentChunkID = parent.ID()
			cm.IsParent = models.BoolPtr(false)
			child, err := models.NewChunk(childText, cm)
			if err != nil {
				return nil, nil, err
			}
			children = append(children, child)
		}
	}
	return parents, children, nil
}
