// Package cli provides output and input helpers for the shiryo command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/hyperjump/shiryo/internal/ingest"
	"github.com/hyperjump/shiryo/internal/models"
	"github.com/hyperjump/shiryo/internal/source"
	"github.com/hyperjump/shiryo/pkg/utils"
)

// OutputFormat selects how results are printed.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ExpandInputs turns command-line inputs into ingestion paths. Directories are walked and
// files matching extensions are added in lexical order; files and s3:// URIs pass through.
// Paths that do not exist are kept so the ingest run reports them as missing.
func ExpandInputs(inputs, extensions []string) ([]string, error) {
	var out []string
	for _, in := range inputs {
		if source.IsRemote(in) {
			out = append(out, in)
			continue
		}
		info, err := os.Stat(in)
		if err != nil || !info.IsDir() {
			out = append(out, in)
			continue
		}
		err = filepath.WalkDir(in, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != in && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if hasExtension(path, extensions) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", in, err)
		}
	}
	return out, nil
}

func hasExtension(path string, extensions []string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	if len(extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if "."+strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// reportJSON is the JSON form of an ingest.Report with its failures spelled out.
type reportJSON struct {
	*ingest.Report
	Failures []string `json:"failures"`
}

// WriteReport prints an ingestion report.
func WriteReport(w io.Writer, r *ingest.Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, reportJSON{Report: r, Failures: r.Failures()})
	}
	fmt.Fprintf(w, "run %s: %d document(s) loaded, %d chunk(s) ingested",
		r.RunID, r.DocumentsLoaded, r.ChunksIngested)
	if r.ParentsStored > 0 {
		fmt.Fprintf(w, ", %d parent chunk(s) stored", r.ParentsStored)
	}
	fmt.Fprintf(w, " in %s\n", r.FinishedAt.Sub(r.StartedAt).Round(1e6))
	for _, f := range r.Failures() {
		fmt.Fprintf(w, "  ! %s\n", f)
	}
	return nil
}

// WriteDeleteResult prints the result of a delete.
func WriteDeleteResult(w io.Writer, res ingest.DeleteResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintln(w, res.Message)
	return nil
}

// WriteDocuments prints a document listing as a table.
func WriteDocuments(w io.Writer, docs []*models.DocumentSummary, format OutputFormat) error {
	if format == OutputJSON {
		if docs == nil {
			docs = []*models.DocumentSummary{}
		}
		return writeJSON(w, docs)
	}
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents.")
		return nil
	}
	t := newTable(w, "DOCUMENT", "CHUNKS", "PARENTS", "LAST INGESTED")
	for _, d := range docs {
		t.Append([]string{
			d.DocumentID,
			strconv.FormatInt(d.Chunks, 10),
			strconv.FormatInt(d.Parents, 10),
			d.LastIngestedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	t.Render()
	return nil
}

// WriteChunks prints the chunks of one document.
func WriteChunks(w io.Writer, rows []*models.ChunkRow, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, rows)
	}
	t := newTable(w, "CHUNK", "TYPE", "PAGE", "CONTENT")
	for _, r := range rows {
		typ, page := "", ""
		if r.Metadata != nil {
			typ = string(r.Metadata.Type)
			if r.Metadata.Parent() {
				typ += " (parent)"
			}
			if r.Metadata.Page > 0 {
				page = strconv.Itoa(r.Metadata.Page)
			}
		}
		t.Append([]string{r.ChunkID, typ, page, utils.Truncate(utils.OneLine(r.Content), 60)})
	}
	t.Render()
	return nil
}

// WriteSearch prints similarity hits.
func WriteSearch(w io.Writer, resp *models.SimilarityResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms\n\n", resp.Total, resp.QueryTime)
	for _, h := range resp.Hits {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | %s\n", h.Rank, h.Score, h.ChunkID)
		if h.Chunk != nil {
			if src := h.Chunk.Metadata; src != nil {
				fmt.Fprintf(w, "Source: %s\n", src.Source)
			}
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(h.Chunk.Content, 200))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetBorder(false)
	t.SetColumnSeparator("")
	t.SetCenterSeparator("")
	t.SetRowSeparator("")
	t.SetHeaderLine(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	return t
}
