package extract

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/shiryo/internal/models"
)

// loadWorkbook returns one table document per non-empty sheet.
func (l *Loader) loadWorkbook(path string) ([]*models.Document, error) {
	tables, err := readWorkbook(path)
	if err != nil {
		return nil, err
	}
	var docs []*models.Document
	for _, t := range tables {
		md := l.formatter.FormatMarkdown(t)
		if md == "" {
			continue
		}
		docs = append(docs, &models.Document{
			Content: md,
			Source:  path,
			Type:    models.TypeTable,
			Page:    t.Page,
			Extra:   map[string]any{"sheet": t.Name},
		})
	}
	return docs, nil
}

func readWorkbook(path string) ([]TableData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var tables []TableData
	for i, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		tables = append(tables, TableData{Name: sheet, Rows: rows, Page: i + 1})
	}
	return tables, nil
}
