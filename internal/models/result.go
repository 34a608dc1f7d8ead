package models

// SimilarityHit is a single vector hit, joined with its keyword-table row when available.
type SimilarityHit struct {
	ChunkID string    `json:"chunk_id"`
	Score   float64   `json:"score"`
	Chunk   *ChunkRow `json:"chunk,omitempty"`
	Rank    int       `json:"rank"`
}

// SimilarityResponse is the response for a similarity passthrough request.
type SimilarityResponse struct {
	Query     string           `json:"query"`
	Hits      []*SimilarityHit `json:"hits"`
	Total     int              `json:"total"`
	QueryTime int64            `json:"query_time_ms"`
}
