// Package numbering assigns display numbers to a document's ordered
// declarations. It is a pure function of (declarations, outline,
// effective settings): re-running it on unchanged input yields identical
// output.
package numbering

import (
	"strconv"
	"strings"

	"github.com/1rns/obsidian-math-booster/internal/model"
	"github.com/1rns/obsidian-math-booster/internal/settings"
)

// Number returns a copy of decls with Number assigned.
//
// Declarations are partitioned into streams by kind-group: all equations
// share one stream; theorem-like sub-kinds share a stream or number
// independently per settings. Within a stream a running counter advances
// in document order, resetting per the configured scope. Declarations
// with a manual tag receive that literal value and neither advance nor
// reset the counter.
func Number(decls []model.Declaration, outline []model.Heading, s settings.Settings) []model.Declaration {
	out := make([]model.Declaration, len(decls))
	copy(out, decls)

	counters := make(map[string]int)
	var headingNums [7]int // heading counters by level, 1-indexed
	lastLevel := 0
	nextHeading := 0

	for i := range out {
		d := &out[i]

		// Apply heading events up to this declaration.
		for nextHeading < len(outline) && outline[nextHeading].Line <= d.LineStart {
			h := outline[nextHeading]
			nextHeading++
			if h.Level < 1 || h.Level > 6 {
				continue
			}
			headingNums[h.Level]++
			for l := h.Level + 1; l <= 6; l++ {
				headingNums[l] = 0
			}
			lastLevel = h.Level

			if s.Scope == settings.ScopeSection && h.Level <= s.SectionDepth {
				counters = make(map[string]int)
			}
		}

		switch {
		case d.NoNumber:
			d.Number = ""
		case d.ManualTag != "":
			// Manual tags are literal: no style transform, no prefix.
			d.Number = d.ManualTag
		default:
			stream := streamKey(d, s)
			counters[stream]++
			value := s.StartAt + counters[stream] - 1

			styled := applyStyle(value, styleFor(d, s))
			if s.PrefixHeadings {
				if prefix := headingPath(headingNums, lastLevel, s.PrefixSeparator); prefix != "" {
					styled = prefix + s.PrefixSeparator + styled
				}
			}
			d.Number = styled
		}
	}

	return out
}

// FormatTag renders a computed number through the display template.
func FormatTag(number, tagFormat string) string {
	if number == "" {
		return ""
	}
	if !strings.Contains(tagFormat, "{number}") {
		return number
	}
	return strings.ReplaceAll(tagFormat, "{number}", number)
}

// streamKey maps a declaration to its numbering stream.
func streamKey(d *model.Declaration, s settings.Settings) string {
	if d.Kind == model.KindEquation {
		return "equation"
	}
	if s.SharedStreams || d.SubKind == "" {
		return "theorem"
	}
	return d.SubKind
}

func styleFor(d *model.Declaration, s settings.Settings) settings.Style {
	if d.Kind == model.KindEquation {
		return s.EquationStyle
	}
	return s.TheoremStyle
}

// headingPath joins the current heading numbers down to level, e.g.
// "2.3". Empty before the first heading. Levels above the first heading
// seen are skipped, so a document opening with an h2 yields "1" rather
// than "0.1".
func headingPath(nums [7]int, level int, sep string) string {
	if level < 1 {
		return ""
	}
	first := 1
	for first <= level && nums[first] == 0 {
		first++
	}
	parts := make([]string, 0, level-first+1)
	for l := first; l <= level; l++ {
		parts = append(parts, strconv.Itoa(nums[l]))
	}
	return strings.Join(parts, sep)
}
