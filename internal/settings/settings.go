// Package settings implements the numbering configuration cascade.
//
// Every document has exactly one effective Settings value, computed by
// walking from the document up through its folders to the vault root.
// Each level overrides only the keys it explicitly sets; unset keys
// inherit from the nearest ancestor that sets them. The root sets every
// key, which guarantees resolution is total.
package settings

// Style selects the display transform for automatic numbers.
type Style string

const (
	StyleArabic Style = "arabic"
	StyleRoman  Style = "roman"
	StyleAlpha  Style = "alpha"
)

// Valid reports whether the style is a recognized value.
func (s Style) Valid() bool {
	switch s {
	case StyleArabic, StyleRoman, StyleAlpha:
		return true
	}
	return false
}

// Scope selects when automatic counters reset.
type Scope string

const (
	// ScopeContinuous never resets within a document. Cross-document
	// continuity is not supported: every document restarts the counter.
	ScopeContinuous Scope = "continuous"

	// ScopeDocument resets at the beginning of each document.
	ScopeDocument Scope = "document"

	// ScopeSection resets whenever a heading at or above the configured
	// section depth is crossed.
	ScopeSection Scope = "section"
)

// Valid reports whether the scope is a recognized value.
func (s Scope) Valid() bool {
	switch s {
	case ScopeContinuous, ScopeDocument, ScopeSection:
		return true
	}
	return false
}

// Settings is the fully resolved numbering configuration for a document.
type Settings struct {
	// TheoremStyle and EquationStyle transform automatic numbers for
	// the two kind families. Manual tags are never transformed.
	TheoremStyle  Style `json:"theorem_style"`
	EquationStyle Style `json:"equation_style"`

	// Scope controls counter resets.
	Scope Scope `json:"scope"`

	// SectionDepth is the heading level that triggers a reset when
	// Scope is "section" (a heading with Level <= SectionDepth resets).
	SectionDepth int `json:"section_depth"`

	// PrefixHeadings prepends the current heading-number path ("2.3")
	// to automatic numbers.
	PrefixHeadings bool `json:"prefix_headings"`

	// PrefixSeparator joins the heading path and the counter value.
	PrefixSeparator string `json:"prefix_separator"`

	// StartAt is the first value of every automatic counter.
	StartAt int `json:"start_at"`

	// SharedStreams puts all theorem-like sub-kinds on one counter.
	// When false each sub-kind numbers independently.
	SharedStreams bool `json:"shared_streams"`

	// TagFormat renders a display tag from a computed number.
	// "{number}" is replaced by the number.
	TagFormat string `json:"tag_format"`

	// Excluded removes the document from indexing entirely.
	Excluded bool `json:"excluded"`
}

// Defaults returns the root settings. The root sets every key.
func Defaults() Settings {
	return Settings{
		TheoremStyle:    StyleArabic,
		EquationStyle:   StyleArabic,
		Scope:           ScopeDocument,
		SectionDepth:    1,
		PrefixHeadings:  false,
		PrefixSeparator: ".",
		StartAt:         1,
		SharedStreams:   true,
		TagFormat:       "({number})",
		Excluded:        false,
	}
}

// RootOverride returns an Override that sets every key to its default,
// suitable for seeding a fresh settings file with an explicit root node.
func RootOverride() Override {
	d := Defaults()
	return Override{
		TheoremStyle:    &d.TheoremStyle,
		EquationStyle:   &d.EquationStyle,
		Scope:           &d.Scope,
		SectionDepth:    &d.SectionDepth,
		PrefixHeadings:  &d.PrefixHeadings,
		PrefixSeparator: &d.PrefixSeparator,
		StartAt:         &d.StartAt,
		SharedStreams:   &d.SharedStreams,
		TagFormat:       &d.TagFormat,
	}
}

// Override is a partial settings object attached to one folder or
// document. Nil fields inherit.
type Override struct {
	TheoremStyle    *Style  `yaml:"theorem_style,omitempty" json:"theorem_style,omitempty"`
	EquationStyle   *Style  `yaml:"equation_style,omitempty" json:"equation_style,omitempty"`
	Scope           *Scope  `yaml:"scope,omitempty" json:"scope,omitempty"`
	SectionDepth    *int    `yaml:"section_depth,omitempty" json:"section_depth,omitempty"`
	PrefixHeadings  *bool   `yaml:"prefix_headings,omitempty" json:"prefix_headings,omitempty"`
	PrefixSeparator *string `yaml:"prefix_separator,omitempty" json:"prefix_separator,omitempty"`
	StartAt         *int    `yaml:"start_at,omitempty" json:"start_at,omitempty"`
	SharedStreams   *bool   `yaml:"shared_streams,omitempty" json:"shared_streams,omitempty"`
	TagFormat       *string `yaml:"tag_format,omitempty" json:"tag_format,omitempty"`
	Excluded        *bool   `yaml:"excluded,omitempty" json:"excluded,omitempty"`
}

// IsEmpty reports whether the override sets no keys.
func (o Override) IsEmpty() bool {
	return o.TheoremStyle == nil && o.EquationStyle == nil && o.Scope == nil &&
		o.SectionDepth == nil && o.PrefixHeadings == nil && o.PrefixSeparator == nil &&
		o.StartAt == nil && o.SharedStreams == nil && o.TagFormat == nil && o.Excluded == nil
}

// apply copies the override's set keys onto s. Invalid enumerated values
// are skipped and reported: the key behaves as unset, so the nearest
// valid ancestor wins, and the root default only when no ancestor sets
// the key. This keeps resolution consistent with the cascade rule for
// unset keys instead of letting a typo punch through to the root.
func (o Override) apply(s *Settings) []string {
	var invalid []string

	if o.TheoremStyle != nil {
		if o.TheoremStyle.Valid() {
			s.TheoremStyle = *o.TheoremStyle
		} else {
			invalid = append(invalid, "theorem_style="+string(*o.TheoremStyle))
		}
	}
	if o.EquationStyle != nil {
		if o.EquationStyle.Valid() {
			s.EquationStyle = *o.EquationStyle
		} else {
			invalid = append(invalid, "equation_style="+string(*o.EquationStyle))
		}
	}
	if o.Scope != nil {
		if o.Scope.Valid() {
			s.Scope = *o.Scope
		} else {
			invalid = append(invalid, "scope="+string(*o.Scope))
		}
	}
	if o.SectionDepth != nil {
		if *o.SectionDepth >= 1 && *o.SectionDepth <= 6 {
			s.SectionDepth = *o.SectionDepth
		} else {
			invalid = append(invalid, "section_depth")
		}
	}
	if o.PrefixHeadings != nil {
		s.PrefixHeadings = *o.PrefixHeadings
	}
	if o.PrefixSeparator != nil && *o.PrefixSeparator != "" {
		s.PrefixSeparator = *o.PrefixSeparator
	}
	if o.StartAt != nil {
		if *o.StartAt >= 0 {
			s.StartAt = *o.StartAt
		} else {
			invalid = append(invalid, "start_at")
		}
	}
	if o.SharedStreams != nil {
		s.SharedStreams = *o.SharedStreams
	}
	if o.TagFormat != nil && *o.TagFormat != "" {
		s.TagFormat = *o.TagFormat
	}
	if o.Excluded != nil {
		s.Excluded = *o.Excluded
	}

	return invalid
}
