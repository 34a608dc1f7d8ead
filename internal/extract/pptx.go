package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/shiryo/internal/models"
)

// slideName matches ppt/slides/slideN.xml and captures N.
var slideName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// atTag matches <a:t>text</a:t> with any attributes.
var atTag = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

type slide struct {
	number int
	text   string
}

// loadPPTX returns one document per slide with text, numbered by slide.
func loadPPTX(path string) ([]*models.Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("extract PPTX: not a zip: %w", err)
	}
	defer zr.Close()

	slides, err := readSlides(&zr.Reader)
	if err != nil {
		return nil, err
	}
	docs := make([]*models.Document, 0, len(slides))
	for _, s := range slides {
		if s.text == "" {
			continue
		}
		docs = append(docs, &models.Document{Content: s.text, Source: path, Type: models.TypeText, Page: s.number})
	}
	return docs, nil
}

func readSlides(zr *zip.Reader) ([]slide, error) {
	var slides []slide
	for _, f := range zr.File {
		m := slideName.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: open %s: %w", f.Name, err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: read %s: %w", f.Name, err)
		}
		parts := atTag.FindAllStringSubmatch(buf.String(), -1)
		words := make([]string, 0, len(parts))
		for _, p := range parts {
			if w := strings.TrimSpace(p[1]); w != "" {
				words = append(words, w)
			}
		}
		slides = append(slides, slide{number: n, text: strings.Join(words, " ")})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })
	return slides, nil
}
