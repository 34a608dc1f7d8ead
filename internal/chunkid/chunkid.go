// Package chunkid builds and parses the deterministic chunk identifiers shared by the vector index
// and the keyword table.
//
// Formats:
//
//	standard: {doc_id}_{i}_{j}
//	parent:   parent_{doc_id}_{i}_{p}
//	child:    child_{parent_id}_{c}
//
// doc_id is the base name of the source path, i is the document's position in the ingestion
// batch and j, p, c are positions within that document or parent.
package chunkid

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	parentPrefix = "parent_"
	childPrefix  = "child_"
)

// Kind identifies which chunking mode produced an id.
type Kind int

const (
	KindStandard Kind = iota
	KindParent
	KindChild
)

func (k Kind) String() string {
	switch k {
	case KindParent:
		return "parent"
	case KindChild:
		return "child"
	default:
		return "standard"
	}
}

// DocumentID returns the document id for a source path: its base name.
// A source without a path falls back to doc_source_{index}.
func DocumentID(source string, index int) string {
	if source == "" {
		return fmt.Sprintf("doc_source_%d", index)
	}
	base := filepath.Base(source)
	if base == "." || base == string(filepath.Separator) {
		return fmt.Sprintf("doc_source_%d", index)
	}
	return base
}

// Standard returns the id of chunk j of document i.
func Standard(docID string, i, j int) string {
	return fmt.Sprintf("%s_%d_%d", docID, i, j)
}

// Parent returns the id of parent p of document i.
func Parent(docID string, i, p int) string {
	return fmt.Sprintf("%s%s_%d_%d", parentPrefix, docID, i, p)
}

// Child returns the id of child c under parentID.
func Child(parentID string, c int) string {
	return fmt.Sprintf("%s%s_%d", childPrefix, parentID, c)
}

// ID is a parsed chunk id.
type ID struct {
	Kind       Kind
	DocumentID string
	DocIndex   int
	// Position is j for standard ids and p for parents and children.
	Position int
	// ChildIndex is set for children only.
	ChildIndex int
	ParentID   string
}

// Parse splits a chunk id into its parts.
func Parse(id string) (*ID, error) {
	switch {
	case strings.HasPrefix(id, childPrefix):
		rest := strings.TrimPrefix(id, childPrefix)
		cut := strings.LastIndex(rest, "_")
		if cut < 0 {
			return nil, fmt.Errorf("malformed child id %q", id)
		}
		c, err := strconv.Atoi(rest[cut+1:])
		if err != nil {
			return nil, fmt.Errorf("malformed child id %q: %w", id, err)
		}
		parent, err := Parse(rest[:cut])
		if err != nil || parent.Kind != KindParent {
			return nil, fmt.Errorf("malformed child id %q: bad parent", id)
		}
		parent.Kind = KindChild
		parent.ChildIndex = c
		parent.ParentID = rest[:cut]
		return parent, nil
	case strings.HasPrefix(id, parentPrefix):
		doc, i, p, err := splitTail(strings.TrimPrefix(id, parentPrefix))
		if err != nil {
			return nil, fmt.Errorf("malformed parent id %q: %w", id, err)
		}
		return &ID{Kind: KindParent, DocumentID: doc, DocIndex: i, Position: p}, nil
	default:
		doc, i, j, err := splitTail(id)
		if err != nil {
			return nil, fmt.Errorf("malformed chunk id %q: %w", id, err)
		}
		return &ID{Kind: KindStandard, DocumentID: doc, DocIndex: i, Position: j}, nil
	}
}

// splitTail parses "{doc}_{a}_{b}" where doc may itself contain underscores.
func splitTail(s string) (string, int, int, error) {
	second := strings.LastIndex(s, "_")
	if second <= 0 {
		return "", 0, 0, fmt.Errorf("missing position")
	}
	first := strings.LastIndex(s[:second], "_")
	if first <= 0 {
		return "", 0, 0, fmt.Errorf("missing document index")
	}
	a, err := strconv.Atoi(s[first+1 : second])
	if err != nil {
		return "", 0, 0, err
	}
	b, err := strconv.Atoi(s[second+1:])
	if err != nil {
		return "", 0, 0, err
	}
	return s[:first], a, b, nil
}
