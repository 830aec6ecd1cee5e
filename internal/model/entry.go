package model

// Entry is the indexed, queryable projection of a Declaration.
type Entry struct {
	// DocumentID is the owning document ("notes/analysis").
	DocumentID string `json:"document_id"`

	// FilePath is the vault-relative markdown path.
	FilePath string `json:"file_path"`

	// LocalID is the label local to the document (explicit label or
	// auto-generated slot).
	LocalID string `json:"local_id"`

	// Explicit is true when LocalID is a user-assigned label.
	Explicit bool `json:"explicit"`

	Kind    Kind   `json:"kind"`
	SubKind string `json:"sub_kind,omitempty"`
	Title   string `json:"title,omitempty"`

	// Number is the display number/tag computed by the numbering engine.
	Number string `json:"number,omitempty"`

	LineStart   int `json:"line_start"`
	LineEnd     int `json:"line_end"`
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`
}

// QualifiedLabel returns the index key for this entry.
func (e Entry) QualifiedLabel() string {
	return QualifiedLabel(e.DocumentID, e.LocalID)
}

// KindName returns the most specific kind name for display and matching:
// the sub-kind for theorem-like entries, "equation" otherwise.
func (e Entry) KindName() string {
	if e.Kind == KindTheorem && e.SubKind != "" {
		return e.SubKind
	}
	return string(e.Kind)
}
