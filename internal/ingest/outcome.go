package ingest

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Kind classifies a failure.
type Kind string

const (
	KindMissingInput Kind = "missing_input"
	KindLoad         Kind = "load"
	KindChunking     Kind = "chunking"
	KindKeywordStore Kind = "keyword_store"
	KindVectorStore  Kind = "vector_store"
	KindEmptyID      Kind = "empty_id"
	KindDelete       Kind = "delete"
)

// Outcome records one per-file, per-document or per-batch failure.
type Outcome struct {
	Kind   Kind   `json:"kind"`
	Source string `json:"source,omitempty"`
	Err    error  `json:"-"`
}

func (o Outcome) Error() string {
	if o.Source == "" {
		return fmt.Sprintf("%s: %v", o.Kind, o.Err)
	}
	return fmt.Sprintf("%s %s: %v", o.Kind, o.Source, o.Err)
}

func (o Outcome) Unwrap() error {
	return o.Err
}

// Report summarizes one ingestion run. Failures never abort the run; they are collected here.
type Report struct {
	RunID           string    `json:"run_id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	DocumentsLoaded int       `json:"documents_loaded"`
	ChunksIngested  int       `json:"chunks_ingested"`
	ParentsStored   int       `json:"parents_stored"`
	Outcomes        []Outcome `json:"-"`
}

// Err joins all recorded failures, or returns nil if there were none.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		errs = append(errs, o)
	}
	return errors.Join(errs...)
}

// Failed returns the outcomes of the given kind.
func (r *Report) Failed(kind Kind) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	return out
}

// Failures returns outcome messages for display.
func (r *Report) Failures() []string {
	out := make([]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		out = append(out, o.Error())
	}
	return out
}

// DeleteResult is the result of deleting one document id.
type DeleteResult struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Deleted  int64    `json:"deleted"`
	ChunkIDs []string `json:"chunk_ids,omitempty"`
	Kind     Kind     `json:"kind,omitempty"`
	Err      error    `json:"-"`
}

// errorType logs the concrete type of the innermost error in err's chain.
func errorType(err error) zap.Field {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return zap.String("error_type", fmt.Sprintf("%T", err))
}
