// Package scanner parses one document's content into an ordered list of
// numbered-object declarations (theorem-like callouts and display
// equations) plus the heading outline.
//
// Scanning is side-effect-free and never fails: malformed block metadata
// demotes the block to untyped/unnumbered instead of aborting.
package scanner

import (
	"fmt"
	"strings"

	goslug "github.com/gosimple/slug"

	"github.com/1rns/obsidian-math-booster/internal/model"
)

// Result is the output of scanning one document.
type Result struct {
	// Declarations are in document order. Order defines the numbering
	// sequence.
	Declarations []model.Declaration

	// Outline is the document's heading outline.
	Outline []model.Heading
}

// Scan parses document content. It recognizes theorem-like callout
// blocks and display-math ($$) blocks, skipping fenced code.
func Scan(content string) *Result {
	res := &Result{Outline: ExtractOutline(content)}

	lines := splitLinesKeepOffsets(content)

	inFence := false
	fenceMarker := ""

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line.text)

		// Fenced code blocks hide everything inside them.
		if marker := fenceOpener(trimmed); marker != "" {
			if !inFence {
				inFence = true
				fenceMarker = marker
			} else if strings.HasPrefix(trimmed, fenceMarker) {
				inFence = false
			}
			continue
		}
		if inFence {
			continue
		}

		// Theorem-like callout opener.
		if meta, ok := parseCalloutOpener(line.text); ok {
			d := declarationFromCallout(meta)
			d.StartOffset = line.start
			d.LineStart = i + 1

			// The block closes implicitly at the first unquoted line.
			last := i
			for last+1 < len(lines) && isQuotedLine(lines[last+1].text) {
				last++
			}
			d.EndOffset = lines[last].end
			d.LineEnd = last + 1

			res.Declarations = append(res.Declarations, d)
			i = last
			continue
		}

		// Display-math block.
		if idx := strings.Index(line.text, "$$"); idx >= 0 && !isQuotedLine(line.text) {
			d, last, ok := scanEquation(lines, i, idx)
			if ok {
				res.Declarations = append(res.Declarations, d)
				i = last
				continue
			}
		}
	}

	assignLocalIDs(res.Declarations)
	return res
}

// scanEquation consumes a $$ block starting on lines[i] at byte column
// open. Returns the declaration, the index of the block's last line, and
// whether a complete block was found (unterminated blocks are ignored).
func scanEquation(lines []scanLine, i, open int) (model.Declaration, int, bool) {
	first := lines[i]
	afterOpen := first.text[open+2:]

	// Single-line form: $$ ... $$
	if close := strings.Index(afterOpen, "$$"); close >= 0 {
		body := afterOpen[:close]
		d := declarationFromEquation(body)
		d.StartOffset = first.start + open
		d.EndOffset = first.start + open + 2 + close + 2
		d.LineStart = i + 1
		d.LineEnd = i + 1
		return d, i, true
	}

	// Multi-line form: collect until the closing $$.
	var body strings.Builder
	body.WriteString(afterOpen)
	for j := i + 1; j < len(lines); j++ {
		text := lines[j].text
		if close := strings.Index(text, "$$"); close >= 0 {
			body.WriteString("\n")
			body.WriteString(text[:close])
			d := declarationFromEquation(body.String())
			d.StartOffset = first.start + open
			d.EndOffset = lines[j].start + close + 2
			d.LineStart = i + 1
			d.LineEnd = j + 1
			return d, j, true
		}
		body.WriteString("\n")
		body.WriteString(text)
	}

	return model.Declaration{}, i, false
}

// assignLocalIDs fills LocalID for every declaration: the explicit label
// when present, else a slug of the title, else "<kind>-<ordinal>".
// IDs are unique within the document; collisions get a numeric suffix.
func assignLocalIDs(decls []model.Declaration) {
	used := make(map[string]struct{}, len(decls))
	for i := range decls {
		if decls[i].Label != "" {
			decls[i].LocalID = uniqueID(used, decls[i].Label)
		}
	}

	ordinals := make(map[string]int)
	for i := range decls {
		if decls[i].LocalID != "" {
			continue
		}

		slot := slotName(&decls[i])
		ordinals[slot]++

		if decls[i].Title != "" {
			if slugged := goslug.Make(decls[i].Title); slugged != "" {
				decls[i].LocalID = uniqueID(used, slugged)
				continue
			}
		}
		decls[i].LocalID = uniqueID(used, fmt.Sprintf("%s-%d", slot, ordinals[slot]))
	}
}

func slotName(d *model.Declaration) string {
	if d.Kind == model.KindEquation {
		return "eq"
	}
	if d.SubKind != "" {
		return d.SubKind
	}
	return "block"
}

func uniqueID(used map[string]struct{}, candidate string) string {
	id := candidate
	for n := 2; ; n++ {
		if _, taken := used[id]; !taken {
			break
		}
		id = fmt.Sprintf("%s-%d", candidate, n)
	}
	used[id] = struct{}{}
	return id
}

// fenceOpener returns the fence marker when a line opens or closes a
// fenced code block ("```" or "~~~"), else "".
func fenceOpener(trimmed string) string {
	if strings.HasPrefix(trimmed, "```") {
		return "```"
	}
	if strings.HasPrefix(trimmed, "~~~") {
		return "~~~"
	}
	return ""
}

// scanLine is one source line with its byte offsets.
type scanLine struct {
	text  string
	start int // offset of the first byte
	end   int // offset one past the last byte (excluding the newline)
}

func splitLinesKeepOffsets(content string) []scanLine {
	var out []scanLine
	start := 0
	for i := 0; i <= len(content); i++ {
		if i == len(content) || content[i] == '\n' {
			out = append(out, scanLine{text: content[start:i], start: start, end: i})
			start = i + 1
		}
	}
	return out
}
