// Package splitter cuts normalized text into bounded, overlapping pieces.
package splitter

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

// Splitter names accepted by New.
const (
	KindWindow    = "window"
	KindRecursive = "recursive"
)

// Splitter splits text into ordered pieces of at most Size runes.
type Splitter interface {
	Split(text string) ([]string, error)
}

// New returns the named splitter for size and overlap, both in runes.
func New(kind string, size, overlap int) (Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	switch kind {
	case "", KindWindow:
		return NewWindow(size, overlap), nil
	case KindRecursive:
		return NewRecursive(size, overlap), nil
	default:
		return nil, fmt.Errorf("unknown splitter %q", kind)
	}
}

// Window is a fixed-size sliding window over runes. Consecutive pieces share exactly
// Overlap runes and every piece except possibly the last has exactly Size runes.
type Window struct {
	Size    int
	Overlap int
}

// NewWindow creates a window splitter. An overlap that does not leave room to advance is
// reduced to a quarter of the size.
func NewWindow(size, overlap int) *Window {
	if size <= 0 {
		size = 1
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &Window{Size: size, Overlap: overlap}
}

// Split returns the window pieces of text. Empty text yields no pieces; text no longer than
// Size yields one.
func (w *Window) Split(text string) ([]string, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}
	step := w.Size - w.Overlap
	pieces := make([]string, 0, len(runes)/step+1)
	for start := 0; ; start += step {
		end := start + w.Size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
		if end >= len(runes) {
			break
		}
	}
	return pieces, nil
}

// Recursive splits on paragraph, line and word boundaries before falling back to characters.
type Recursive struct {
	inner textsplitter.RecursiveCharacter
}

// NewRecursive creates a boundary-aware splitter.
func NewRecursive(size, overlap int) *Recursive {
	return &Recursive{inner: textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
	)}
}

func (r *Recursive) Split(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	pieces, err := r.inner.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("recursive split: %w", err)
	}
	return pieces, nil
}
