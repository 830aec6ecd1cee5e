package scanner

import (
	"encoding/json"
	"strings"

	"github.com/1rns/obsidian-math-booster/internal/model"
)

// calloutPrefix opens a theorem-like block:
//
//	> [!math|{"type":"theorem","label":"thm:main","title":"Main Theorem"}]
//
// The block continues while lines stay quoted and closes at the first
// unquoted line.
const calloutPrefix = "[!math|"

// blockMeta is the JSON payload on a theorem-like callout opener.
type blockMeta struct {
	Type   string `json:"type"`
	Label  string `json:"label"`
	Title  string `json:"title"`
	Number string `json:"number"`
}

// parseCalloutOpener extracts the metadata payload from a callout opener
// line. Returns (meta, true) when the line opens a math callout; a
// malformed payload yields (nil, true) so the caller can demote the
// block instead of failing the scan.
func parseCalloutOpener(line string) (*blockMeta, bool) {
	rest, ok := strippedCalloutPayload(line)
	if !ok {
		return nil, false
	}

	var meta blockMeta
	if err := json.Unmarshal([]byte(rest), &meta); err != nil {
		return nil, true
	}
	if meta.Type == "" {
		return nil, true
	}
	return &meta, true
}

// strippedCalloutPayload returns the JSON payload between "[!math|" and
// the closing "]" of a quoted callout opener line.
func strippedCalloutPayload(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ">") {
		return "", false
	}
	trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))

	idx := strings.Index(trimmed, calloutPrefix)
	if idx != 0 {
		return "", false
	}
	payload := trimmed[len(calloutPrefix):]

	end := strings.LastIndex(payload, "]")
	if end < 0 {
		return "", false
	}
	return payload[:end], true
}

// isQuotedLine reports whether a line belongs to an open callout block.
func isQuotedLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), ">")
}

// declarationFromCallout builds a Declaration from an opener's metadata.
// meta == nil means the payload was malformed: the block is kept as an
// untyped, unnumbered declaration.
func declarationFromCallout(meta *blockMeta) model.Declaration {
	if meta == nil {
		return model.Declaration{
			Kind:     model.KindTheorem,
			NoNumber: true,
		}
	}

	d := model.Declaration{
		Kind:    model.KindTheorem,
		SubKind: strings.ToLower(strings.TrimSpace(meta.Type)),
		Label:   strings.TrimSpace(meta.Label),
		Title:   strings.TrimSpace(meta.Title),
	}

	switch strings.TrimSpace(meta.Number) {
	case "", "auto":
		// Automatic numbering.
	case "none", "-":
		d.NoNumber = true
	default:
		d.ManualTag = strings.TrimSpace(meta.Number)
	}

	return d
}
