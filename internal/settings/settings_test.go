package settings

import (
	"path/filepath"
	"testing"
)

func stylePtr(s Style) *Style { return &s }
func scopePtr(s Scope) *Scope { return &s }
func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestResolveDefaults(t *testing.T) {
	store := NewStore()
	got := store.Resolve("notes/analysis.md")
	if got != Defaults() {
		t.Errorf("empty store should resolve to defaults, got %+v", got)
	}
}

func TestResolveClosestWins(t *testing.T) {
	store := NewStore()
	store.SetOverride("", Override{TheoremStyle: stylePtr(StyleArabic)})
	store.SetOverride("notes", Override{TheoremStyle: stylePtr(StyleRoman)})

	t.Run("folder override applies to its documents", func(t *testing.T) {
		got := store.Resolve("notes/analysis.md")
		if got.TheoremStyle != StyleRoman {
			t.Errorf("theorem style = %q, want roman", got.TheoremStyle)
		}
	})

	t.Run("sibling folders inherit the root", func(t *testing.T) {
		got := store.Resolve("drafts/todo.md")
		if got.TheoremStyle != StyleArabic {
			t.Errorf("theorem style = %q, want arabic", got.TheoremStyle)
		}
	})

	t.Run("document override beats its folder", func(t *testing.T) {
		store.SetOverride("notes/analysis", Override{TheoremStyle: stylePtr(StyleAlpha)})
		got := store.Resolve("notes/analysis.md")
		if got.TheoremStyle != StyleAlpha {
			t.Errorf("theorem style = %q, want alpha", got.TheoremStyle)
		}
	})
}

func TestResolvePartialInheritance(t *testing.T) {
	store := NewStore()
	store.SetOverride("notes", Override{
		EquationStyle: stylePtr(StyleRoman),
		StartAt:       intPtr(3),
	})

	got := store.Resolve("notes/deep/nested/doc.md")
	if got.EquationStyle != StyleRoman {
		t.Errorf("equation style = %q, want roman", got.EquationStyle)
	}
	if got.StartAt != 3 {
		t.Errorf("start_at = %d, want 3", got.StartAt)
	}
	// Unset keys inherit the defaults.
	if got.TheoremStyle != StyleArabic {
		t.Errorf("theorem style = %q, want inherited arabic", got.TheoremStyle)
	}
	if got.Scope != ScopeDocument {
		t.Errorf("scope = %q, want inherited document", got.Scope)
	}
}

func TestResolveSkipsInvalidValues(t *testing.T) {
	store := NewStore()
	store.SetOverride("notes", Override{
		TheoremStyle: stylePtr(Style("fancy")),
		Scope:        scopePtr(Scope("galaxy")),
		SectionDepth: intPtr(99),
		StartAt:      intPtr(-1),
	})

	got := store.Resolve("notes/doc.md")
	if got != Defaults() {
		t.Errorf("invalid values must not propagate, got %+v", got)
	}

	t.Run("invalid key inherits the nearest valid ancestor", func(t *testing.T) {
		store.SetOverride("", Override{TheoremStyle: stylePtr(StyleAlpha)})
		got := store.Resolve("notes/doc.md")
		if got.TheoremStyle != StyleAlpha {
			t.Errorf("theorem style = %q, want the ancestor's alpha", got.TheoremStyle)
		}
	})
}

func TestExclusion(t *testing.T) {
	store := NewStore()

	t.Run("direct", func(t *testing.T) {
		store.Exclude("notes/scratch.md")
		if !store.IsExcluded("notes/scratch.md") {
			t.Errorf("document should be excluded")
		}
		if store.IsExcluded("notes/keep.md") {
			t.Errorf("sibling should not be excluded")
		}
		store.Unexclude("notes/scratch.md")
		if store.IsExcluded("notes/scratch.md") {
			t.Errorf("exclusion should be removed")
		}
	})

	t.Run("folder covers descendants", func(t *testing.T) {
		store.Exclude("archive")
		if !store.IsExcluded("archive/old/doc.md") {
			t.Errorf("descendant of excluded folder should be excluded")
		}
		if store.IsExcluded("archives-2/doc.md") {
			t.Errorf("prefix sibling must not match")
		}
	})

	t.Run("via settings override", func(t *testing.T) {
		store.SetOverride("private", Override{Excluded: boolPtr(true)})
		if !store.IsExcluded("private/doc.md") {
			t.Errorf("excluded=true override should exclude the document")
		}
	})
}

func TestAffectedDocuments(t *testing.T) {
	docs := []string{"a/one.md", "a/b/two.md", "c/three.md", "four.md"}

	t.Run("root affects everything", func(t *testing.T) {
		got := AffectedDocuments("", docs)
		if len(got) != len(docs) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("folder affects its subtree", func(t *testing.T) {
		got := AffectedDocuments("a", docs)
		if len(got) != 2 || got[0] != "a/one.md" || got[1] != "a/b/two.md" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("document affects itself only", func(t *testing.T) {
		got := AffectedDocuments("c/three", docs)
		if len(got) != 1 || got[0] != "c/three.md" {
			t.Errorf("got %v", got)
		}
	})
}

func TestStoreSaveLoadRoundtrip(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "settings.yaml")

	store := NewStore()
	store.SetOverride("", RootOverride())
	store.SetOverride("notes", Override{
		TheoremStyle: stylePtr(StyleRoman),
		TagFormat:    strPtr("[{number}]"),
	})
	store.Exclude("archive")

	if err := store.SaveTo(filePath); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, warnings, err := Load(filePath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	got := loaded.Resolve("notes/doc.md")
	if got.TheoremStyle != StyleRoman {
		t.Errorf("theorem style = %q after roundtrip", got.TheoremStyle)
	}
	if got.TagFormat != "[{number}]" {
		t.Errorf("tag format = %q after roundtrip", got.TagFormat)
	}
	if !loaded.IsExcluded("archive/doc.md") {
		t.Errorf("exclusion lost in roundtrip")
	}

	nodes := loaded.Nodes()
	if len(nodes) != 2 || nodes[0] != "" || nodes[1] != "notes" {
		t.Errorf("nodes = %v", nodes)
	}
}

func TestLoadMissingFile(t *testing.T) {
	store, warnings, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if warnings != nil {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if store.Resolve("doc.md") != Defaults() {
		t.Errorf("missing file should yield defaults")
	}
}

func TestLoadReportsInvalidValues(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "settings.yaml")

	store := NewStore()
	store.SetOverride("notes", Override{Scope: scopePtr(Scope("galaxy"))})
	if err := store.SaveTo(filePath); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, warnings, err := Load(filePath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
	if loaded.Resolve("notes/doc.md").Scope != ScopeDocument {
		t.Errorf("invalid scope must fall back to the default")
	}
}

func TestSetOverrideEmptyRemovesNode(t *testing.T) {
	store := NewStore()
	store.SetOverride("notes", Override{StartAt: intPtr(2)})
	store.SetOverride("notes", Override{})
	if _, ok := store.OverrideAt("notes"); ok {
		t.Errorf("empty override should remove the node")
	}
	if len(store.Nodes()) != 0 {
		t.Errorf("nodes = %v", store.Nodes())
	}
}

func TestVersionBumpsOnMutation(t *testing.T) {
	store := NewStore()
	v0 := store.Version()
	store.SetOverride("a", Override{StartAt: intPtr(2)})
	v1 := store.Version()
	if v1 == v0 {
		t.Errorf("version should change after SetOverride")
	}
	store.Exclude("b")
	if store.Version() == v1 {
		t.Errorf("version should change after Exclude")
	}
}
