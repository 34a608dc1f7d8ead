package extract

import (
	"strings"

	"github.com/olekukonko/tablewriter"
)

// TableData is a table found in a document. When Header is empty the first row is used.
type TableData struct {
	Name   string
	Header []string
	Rows   [][]string
	Page   int
}

// TableFormatter renders a table as markdown. An empty result means the table is dropped.
type TableFormatter interface {
	FormatMarkdown(t TableData) string
}

// MarkdownFormatter renders GitHub-style pipe tables.
type MarkdownFormatter struct{}

// FormatMarkdown returns "" for tables with no non-empty cell.
func (MarkdownFormatter) FormatMarkdown(t TableData) string {
	header := t.Header
	rows := t.Rows
	if len(header) == 0 && len(rows) > 0 {
		header, rows = rows[0], rows[1:]
	}
	width := len(header)
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	if width == 0 || !hasContent(header, rows) {
		return ""
	}

	var b strings.Builder
	w := tablewriter.NewWriter(&b)
	w.SetHeader(pad(header, width))
	w.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	w.SetCenterSeparator("|")
	w.SetAutoFormatHeaders(false)
	w.SetAutoWrapText(false)
	for _, r := range rows {
		w.Append(pad(r, width))
	}
	w.Render()
	return strings.TrimRight(b.String(), "\n")
}

func hasContent(header []string, rows [][]string) bool {
	for _, c := range header {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	for _, r := range rows {
		for _, c := range r {
			if strings.TrimSpace(c) != "" {
				return true
			}
		}
	}
	return false
}

var cellReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "|", `\|`)

func pad(row []string, width int) []string {
	out := make([]string, width)
	for i := 0; i < width && i < len(row); i++ {
		out[i] = strings.TrimSpace(cellReplacer.Replace(row[i]))
	}
	return out
}
