package models

import "fmt"

// SimilarityQuery asks the vector store for the nearest chunks to a text.
type SimilarityQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Validate ensures the query is non-empty and clamps the limit to 1..100 (default 10).
func (q *SimilarityQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}
