package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChunkMetadata is the identity and provenance carried by every chunk.
// ChunkID, DocumentID, CollectionName and Type are required; the rest depend on the chunk kind.
type ChunkMetadata struct {
	ChunkID           string         `json:"chunk_id"`
	DocumentID        string         `json:"document_id"`
	Source            string         `json:"original_document_source"`
	CollectionName    string         `json:"collection_name"`
	Type              ChunkType      `json:"type"`
	IsParent          *bool          `json:"is_parent,omitempty"`
	ParentChunkID     string         `json:"parent_chunk_id,omitempty"`
	OriginalImagePath string         `json:"original_image_path,omitempty"`
	Page              int            `json:"page,omitempty"`
	Extra             map[string]any `json:"extra,omitempty"`
}

// Validate checks the required fields and the kind-specific ones.
func (m *ChunkMetadata) Validate() error {
	if m.ChunkID == "" {
		return fmt.Errorf("%w: chunk_id is empty", ErrInvalidMetadata)
	}
	if m.DocumentID == "" {
		return fmt.Errorf("%w: document_id is empty for %s", ErrInvalidMetadata, m.ChunkID)
	}
	if m.CollectionName == "" {
		return fmt.Errorf("%w: collection_name is empty for %s", ErrInvalidMetadata, m.ChunkID)
	}
	if !m.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q for %s", ErrInvalidMetadata, m.Type, m.ChunkID)
	}
	if m.IsParent != nil && !*m.IsParent && m.ParentChunkID == "" {
		return fmt.Errorf("%w: child %s has no parent_chunk_id", ErrInvalidMetadata, m.ChunkID)
	}
	if m.Type == TypeImageSummary && m.OriginalImagePath == "" {
		return fmt.Errorf("%w: image summary %s has no original_image_path", ErrInvalidMetadata, m.ChunkID)
	}
	return nil
}

// Parent reports whether the chunk is a parent in parent-child mode.
func (m *ChunkMetadata) Parent() bool {
	return m.IsParent != nil && *m.IsParent
}

// Encode returns the compact JSON form stored in the keyword table.
func (m *ChunkMetadata) Encode() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

// DecodeMetadata parses metadata written by Encode.
func DecodeMetadata(s string) (*ChunkMetadata, error) {
	var m ChunkMetadata
	if s == "" {
		return &m, nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &m, nil
}

// Chunk is a bounded piece of document text plus its identity metadata.
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// NewChunk builds a chunk and validates its metadata.
func NewChunk(content string, meta ChunkMetadata) (*Chunk, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return &Chunk{Content: content, Metadata: meta}, nil
}

// ID returns the chunk id.
func (c *Chunk) ID() string {
	return c.Metadata.ChunkID
}

// BoolPtr returns a pointer to b, for ChunkMetadata.IsParent.
func BoolPtr(b bool) *bool {
	return &b
}

// ChunkRow is one row of the document_chunks keyword table.
type ChunkRow struct {
	ChunkID          string         `json:"chunk_id" db:"chunk_id"`
	DocumentID       string         `json:"document_id" db:"document_id"`
	CollectionName   string         `json:"collection_name" db:"collection_name"`
	Content          string         `json:"content" db:"content"`
	TokenizedContent string         `json:"tokenized_content" db:"tokenized_content"`
	Metadata         *ChunkMetadata `json:"metadata" db:"metadata"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
}

// DocumentSummary describes one ingested document in a collection.
type DocumentSummary struct {
	DocumentID     string    `json:"document_id"`
	CollectionName string    `json:"collection_name"`
	Chunks         int64     `json:"chunks"`
	Parents        int64     `json:"parents"`
	LastIngestedAt time.Time `json:"last_ingested_at"`
}
