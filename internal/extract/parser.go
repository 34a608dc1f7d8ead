package extract

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// TextElement is a run of text from one page.
type TextElement struct {
	Text string
	Page int
}

// ImageElement is an image written to disk by the parser.
type ImageElement struct {
	Path string
	Page int
}

// Elements is everything a parser found in a PDF, in document order per kind.
type Elements struct {
	Texts  []TextElement
	Images []ImageElement
	Tables []TableData
}

// Parser splits a PDF into text, image and table elements.
type Parser interface {
	ParsePDF(ctx context.Context, path string) (*Elements, error)
}

// PDFParser extracts plain text per page with ledongthuc/pdf. It does not extract images or
// detect tables; plug in a layout-aware Parser for those.
type PDFParser struct{}

// NewPDFParser returns a text-only PDF parser.
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// ParsePDF returns one text element per non-empty page.
func (p *PDFParser) ParsePDF(ctx context.Context, path string) (*Elements, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	elems := &Elements{}
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		if text == "" {
			continue
		}
		elems.Texts = append(elems.Texts, TextElement{Text: text, Page: i})
	}
	return elems, nil
}
