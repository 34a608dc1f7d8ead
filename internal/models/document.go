// Package models defines the documents, chunks and keyword-table rows that flow through ingestion.
package models

// ChunkType tags where a piece of content came from.
type ChunkType string

const (
	// TypeText is ordinary document text (the default).
	TypeText ChunkType = "text"
	// TypeImageSummary is text produced by summarizing an embedded image.
	TypeImageSummary ChunkType = "image_summary"
	// TypeTable is a table rendered to markdown.
	TypeTable ChunkType = "table"
)

// Valid reports whether t is one of the known chunk types.
func (t ChunkType) Valid() bool {
	switch t {
	case TypeText, TypeImageSummary, TypeTable:
		return true
	}
	return false
}

// Document is a unit of loaded source content. It only lives for one ingestion run.
type Document struct {
	Content           string         `json:"content"`
	Source            string         `json:"source"`
	Type              ChunkType      `json:"type"`
	Page              int            `json:"page,omitempty"`
	OriginalImagePath string         `json:"original_image_path,omitempty"`
	Extra             map[string]any `json:"extra,omitempty"`
}

// TypeOrDefault returns the document type, falling back to TypeText.
func (d *Document) TypeOrDefault() ChunkType {
	if d.Type == "" {
		return TypeText
	}
	return d.Type
}
