// Package search implements ranked reference resolution and
// autocomplete over the vault index.
package search

import (
	"sort"
	"strings"

	"github.com/1rns/obsidian-math-booster/internal/model"
)

// Context is the locality used to rank candidates: the active document
// first, then recently visited documents (most recent first), then the
// rest of the collection alphabetically by path.
type Context struct {
	// ActiveDocument is the vault-relative path of the document being
	// edited, or "".
	ActiveDocument string

	// Recent holds recently visited document paths, most recent first.
	Recent []string
}

// WholeVault is the empty locality context: every document ranks only by
// match quality and path.
var WholeVault = Context{}

// Candidate is one ranked suggestion.
type Candidate struct {
	Entry model.Entry `json:"entry"`

	// Quality is the match quality: prefix matches rank above
	// substring matches.
	Quality MatchQuality `json:"quality"`
}

// MatchQuality orders match kinds; lower is better.
type MatchQuality int

const (
	MatchPrefix MatchQuality = iota
	MatchSubstring
)

// Suggest returns up to maxResults candidates whose label or kind
// matches the partial query, ranked by (1) prefix match before substring
// match, (2) locality: active document, then recency order, then
// alphabetic by path. It returns an empty slice when nothing matches or
// the index is empty, never an error.
func Suggest(entries []model.Entry, partial string, ctx Context, maxResults int) []Candidate {
	if maxResults <= 0 {
		return []Candidate{}
	}
	query := strings.ToLower(strings.TrimSpace(partial))

	recentRank := make(map[string]int, len(ctx.Recent))
	for i, p := range ctx.Recent {
		if _, seen := recentRank[p]; !seen {
			recentRank[p] = i
		}
	}

	var candidates []Candidate
	for _, e := range entries {
		q, ok := match(e, query)
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{Entry: e, Quality: q})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Quality != b.Quality {
			return a.Quality < b.Quality
		}
		la, lb := locality(a.Entry, ctx, recentRank), locality(b.Entry, ctx, recentRank)
		if la != lb {
			return la < lb
		}
		if a.Entry.FilePath != b.Entry.FilePath {
			return a.Entry.FilePath < b.Entry.FilePath
		}
		return a.Entry.LineStart < b.Entry.LineStart
	})

	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}
	if candidates == nil {
		candidates = []Candidate{}
	}
	return candidates
}

// match tests an entry against the query, against both the local label
// and the kind name. Empty queries match everything as a prefix.
func match(e model.Entry, query string) (MatchQuality, bool) {
	if query == "" {
		return MatchPrefix, true
	}

	label := strings.ToLower(e.LocalID)
	kind := strings.ToLower(e.KindName())
	fq := strings.ToLower(e.QualifiedLabel())

	if strings.HasPrefix(label, query) || strings.HasPrefix(kind, query) || strings.HasPrefix(fq, query) {
		return MatchPrefix, true
	}
	if strings.Contains(label, query) || strings.Contains(kind, query) || strings.Contains(fq, query) {
		return MatchSubstring, true
	}
	return 0, false
}

// locality buckets: 0 = active document, 1..n = recency order,
// large = everything else (alphabetic tie-break happens later).
func locality(e model.Entry, ctx Context, recentRank map[string]int) int {
	if ctx.ActiveDocument != "" && samePath(e.FilePath, ctx.ActiveDocument) {
		return 0
	}
	if r, ok := recentRank[e.FilePath]; ok {
		return 1 + r
	}
	return 1 + len(recentRank) + 1
}

func samePath(a, b string) bool {
	trim := func(p string) string {
		return strings.TrimSuffix(strings.ReplaceAll(p, "\\", "/"), ".md")
	}
	return trim(a) == trim(b)
}
