// Package model defines the core data types shared across the indexer.
package model

import "strings"

// Kind distinguishes the two families of numbered objects.
type Kind string

const (
	// KindTheorem covers theorem-like callout blocks. The sub-kind name
	// ("theorem", "lemma", "definition", ...) is open-ended.
	KindTheorem Kind = "theorem"

	// KindEquation covers display-math blocks.
	KindEquation Kind = "equation"
)

// Declaration is one numbered object found in a document.
// Declarations are produced by the scanner in document order; order is
// significant and defines the numbering sequence.
type Declaration struct {
	// Kind is the declaration family (theorem-like or equation).
	Kind Kind `json:"kind"`

	// SubKind is the theorem-like sub-kind name ("theorem", "lemma", ...).
	// Empty for equations.
	SubKind string `json:"sub_kind,omitempty"`

	// Label is the user-assigned stable identifier, if any.
	Label string `json:"label,omitempty"`

	// LocalID is the label used to key this declaration within its
	// document: the explicit label when present, otherwise an
	// auto-generated slot like "lemma-2".
	LocalID string `json:"local_id"`

	// Title is the optional display title from the block metadata.
	Title string `json:"title,omitempty"`

	// ManualTag is an explicit manual number/tag. When set, the
	// declaration is assigned this literal value and the automatic
	// counter is unaffected.
	ManualTag string `json:"manual_tag,omitempty"`

	// NoNumber marks declarations that opted out of numbering
	// (\nonumber equations, untyped blocks with malformed metadata).
	NoNumber bool `json:"no_number,omitempty"`

	// Number is the computed display number, assigned by the numbering
	// engine. Empty for unnumbered declarations.
	Number string `json:"number,omitempty"`

	// Source position, sufficient for later text mutation.
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`
	LineStart   int `json:"line_start"` // 1-indexed
	LineEnd     int `json:"line_end"`   // 1-indexed, inclusive
}

// Automatic reports whether this declaration participates in automatic
// numbering.
func (d *Declaration) Automatic() bool {
	return !d.NoNumber && d.ManualTag == ""
}

// Heading is one entry of a document's heading outline.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Line  int    `json:"line"` // 1-indexed
}

// DocumentID converts a vault-relative markdown path to a document ID
// ("notes/analysis.md" -> "notes/analysis").
func DocumentID(relPath string) string {
	id := strings.ReplaceAll(relPath, "\\", "/")
	return strings.TrimSuffix(id, ".md")
}

// QualifiedLabel builds the fully-qualified label used as the index key:
// the document ID plus the local label, separated by '#'.
func QualifiedLabel(docID, localID string) string {
	return docID + "#" + localID
}

// SplitQualifiedLabel splits a fully-qualified label into document ID and
// local label. The second return is empty when no '#' is present.
func SplitQualifiedLabel(fq string) (docID, localID string) {
	if i := strings.LastIndex(fq, "#"); i >= 0 {
		return fq[:i], fq[i+1:]
	}
	return fq, ""
}
