package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/shiryo/internal/ingest"
	"github.com/hyperjump/shiryo/internal/models"
)

func TestParseOutputFormat(t *testing.T) {
	for _, in := range []string{"text", "json"} {
		if _, err := ParseOutputFormat(in); err != nil {
			t.Errorf("ParseOutputFormat(%q): %v", in, err)
		}
	}
	if _, err := ParseOutputFormat("yaml"); err == nil {
		t.Error("expected error for yaml")
	}
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.txt", "sub/c.md", "skip.xyz", ".hidden/d.txt", ".e.txt"} {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	missing := filepath.Join(dir, "missing.docx")
	got, err := ExpandInputs([]string{dir, missing, "s3://bucket/key.pdf"}, []string{".txt", "pdf", ".md"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "sub", "c.md"),
		missing,
		"s3://bucket/key.pdf",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("ExpandInputs() =\n%v\nwant\n%v", got, want)
	}
}

func TestWriteReport(t *testing.T) {
	start := time.Now()
	r := &ingest.Report{
		RunID:           "run-1",
		StartedAt:       start,
		FinishedAt:      start.Add(1500 * time.Millisecond),
		DocumentsLoaded: 2,
		ChunksIngested:  5,
		ParentsStored:   1,
		Outcomes:        []ingest.Outcome{{Kind: ingest.KindMissingInput, Source: "/x.txt", Err: errors.New("not found")}},
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, r, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"run-1", "2 document(s)", "5 chunk(s)", "1 parent", "missing_input /x.txt: not found"} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteReport(&buf, r, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		RunID          string   `json:"run_id"`
		ChunksIngested int      `json:"chunks_ingested"`
		Failures       []string `json:"failures"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.RunID != "run-1" || decoded.ChunksIngested != 5 || len(decoded.Failures) != 1 {
		t.Errorf("decoded report: %+v", decoded)
	}
}

func TestWriteDocuments(t *testing.T) {
	docs := []*models.DocumentSummary{
		{DocumentID: "manual.pdf", Chunks: 12, Parents: 3, LastIngestedAt: time.Now()},
	}
	var buf bytes.Buffer
	if err := WriteDocuments(&buf, docs, OutputText); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); !strings.Contains(out, "manual.pdf") || !strings.Contains(out, "12") {
		t.Errorf("table output: %s", out)
	}

	buf.Reset()
	if err := WriteDocuments(&buf, nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty JSON listing: %q", buf.String())
	}
}

func TestWriteSearch(t *testing.T) {
	resp := &models.SimilarityResponse{
		Query:     "q",
		Total:     1,
		QueryTime: 3,
		Hits: []*models.SimilarityHit{{
			ChunkID: "a.txt_0_0",
			Score:   0.91,
			Rank:    1,
			Chunk: &models.ChunkRow{
				Content:  strings.Repeat("word ", 100),
				Metadata: &models.ChunkMetadata{Source: "/docs/a.txt"},
			},
		}},
	}
	var buf bytes.Buffer
	if err := WriteSearch(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "a.txt_0_0") || !strings.Contains(out, "/docs/a.txt") || !strings.Contains(out, "...") {
		t.Errorf("search output: %s", out)
	}
}
