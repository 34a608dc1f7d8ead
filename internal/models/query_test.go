package models

import (
	"testing"
)

func TestSimilarityQuery_Validate(t *testing.T) {
	tests := []struct {
		name      string
		query     *SimilarityQuery
		wantErr   bool
		wantLimit int
	}{
		{"empty query", &SimilarityQuery{Query: ""}, true, 0},
		{"sets default limit", &SimilarityQuery{Query: "x"}, false, 10},
		{"keeps limit", &SimilarityQuery{Query: "x", Limit: 7}, false, 7},
		{"caps limit at 100", &SimilarityQuery{Query: "x", Limit: 200}, false, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.query.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", tt.query.Limit, tt.wantLimit)
			}
		})
	}
}
