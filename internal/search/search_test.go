package search

import (
	"testing"

	"github.com/1rns/obsidian-math-booster/internal/model"
)

func entry(filePath, localID, subKind string, line int) model.Entry {
	kind := model.KindEquation
	if subKind != "" {
		kind = model.KindTheorem
	}
	return model.Entry{
		DocumentID: model.DocumentID(filePath),
		FilePath:   filePath,
		LocalID:    localID,
		Kind:       kind,
		SubKind:    subKind,
		LineStart:  line,
	}
}

func labelsOf(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Entry.QualifiedLabel()
	}
	return out
}

func TestSuggestPrefixBeatsSubstring(t *testing.T) {
	entries := []model.Entry{
		entry("a.md", "main-thm", "theorem", 1),
		entry("b.md", "thm:main", "theorem", 1),
	}

	got := Suggest(entries, "thm", WholeVault, 10)
	if len(got) != 2 {
		t.Fatalf("got %d candidates: %v", len(got), labelsOf(got))
	}
	if got[0].Entry.LocalID != "thm:main" {
		t.Errorf("prefix match should rank first, got %v", labelsOf(got))
	}
	if got[0].Quality != MatchPrefix || got[1].Quality != MatchSubstring {
		t.Errorf("qualities = %v, %v", got[0].Quality, got[1].Quality)
	}
}

func TestSuggestLocality(t *testing.T) {
	entries := []model.Entry{
		entry("zoo/far.md", "thm:a", "theorem", 1),
		entry("active.md", "thm:b", "theorem", 1),
		entry("recent.md", "thm:c", "theorem", 1),
	}
	ctx := Context{
		ActiveDocument: "active.md",
		Recent:         []string{"recent.md"},
	}

	got := Suggest(entries, "thm", ctx, 10)
	want := []string{"active#thm:b", "recent#thm:c", "zoo/far#thm:a"}
	if len(got) != 3 {
		t.Fatalf("got %v", labelsOf(got))
	}
	for i, w := range want {
		if labelsOf(got)[i] != w {
			t.Errorf("position %d = %q, want %q (all: %v)", i, labelsOf(got)[i], w, labelsOf(got))
		}
	}

	t.Run("active document matches by ID too", func(t *testing.T) {
		ctx := Context{ActiveDocument: "active"}
		got := Suggest(entries, "thm", ctx, 10)
		if got[0].Entry.FilePath != "active.md" {
			t.Errorf("got %v", labelsOf(got))
		}
	})
}

func TestSuggestRecencyOrder(t *testing.T) {
	entries := []model.Entry{
		entry("older.md", "eq:a", "", 1),
		entry("newer.md", "eq:b", "", 1),
	}
	ctx := Context{Recent: []string{"newer.md", "older.md"}}

	got := Suggest(entries, "eq", ctx, 10)
	if len(got) != 2 || got[0].Entry.FilePath != "newer.md" {
		t.Errorf("most recently visited should rank first, got %v", labelsOf(got))
	}
}

func TestSuggestMatchesKindName(t *testing.T) {
	entries := []model.Entry{
		entry("a.md", "result-one", "lemma", 1),
		entry("a.md", "eq-1", "", 3),
	}

	got := Suggest(entries, "lem", WholeVault, 10)
	if len(got) != 1 {
		t.Fatalf("got %v", labelsOf(got))
	}
	// The label does not contain the query; the kind name does.
	if got[0].Entry.LocalID != "result-one" || got[0].Quality != MatchPrefix {
		t.Errorf("got %v", labelsOf(got))
	}
}

func TestSuggestTruncation(t *testing.T) {
	entries := []model.Entry{
		entry("a.md", "eq-1", "", 1),
		entry("a.md", "eq-2", "", 3),
		entry("a.md", "eq-3", "", 5),
	}

	got := Suggest(entries, "eq", WholeVault, 2)
	if len(got) != 2 {
		t.Errorf("got %d candidates, want 2", len(got))
	}

	t.Run("zero budget", func(t *testing.T) {
		got := Suggest(entries, "eq", WholeVault, 0)
		if got == nil || len(got) != 0 {
			t.Errorf("got %v", got)
		}
	})
}

func TestSuggestNoMatch(t *testing.T) {
	entries := []model.Entry{entry("a.md", "thm:main", "theorem", 1)}

	got := Suggest(entries, "zzz", WholeVault, 10)
	if got == nil {
		t.Fatalf("no-match result must be empty, not nil")
	}
	if len(got) != 0 {
		t.Errorf("got %v", labelsOf(got))
	}

	t.Run("empty index", func(t *testing.T) {
		got := Suggest(nil, "thm", WholeVault, 10)
		if got == nil || len(got) != 0 {
			t.Errorf("got %v", got)
		}
	})
}

func TestSuggestEmptyQueryReturnsEverything(t *testing.T) {
	entries := []model.Entry{
		entry("b.md", "eq-1", "", 1),
		entry("a.md", "thm:x", "theorem", 1),
	}

	got := Suggest(entries, "", WholeVault, 10)
	if len(got) != 2 {
		t.Fatalf("got %v", labelsOf(got))
	}
	if got[0].Entry.FilePath != "a.md" {
		t.Errorf("alphabetic path order expected, got %v", labelsOf(got))
	}
}

func TestSuggestQualifiedQuery(t *testing.T) {
	entries := []model.Entry{
		entry("notes/analysis.md", "thm:main", "theorem", 1),
		entry("other.md", "thm:main", "theorem", 1),
	}

	got := Suggest(entries, "notes/analysis#thm", WholeVault, 10)
	if len(got) != 1 || got[0].Entry.FilePath != "notes/analysis.md" {
		t.Errorf("got %v", labelsOf(got))
	}
}
