package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/1rns/obsidian-math-booster/internal/model"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleDecls() []model.Declaration {
	return []model.Declaration{
		{
			Kind: model.KindTheorem, SubKind: "theorem",
			Label: "thm:main", LocalID: "thm:main", Title: "Main Theorem",
			Number: "1", LineStart: 3, LineEnd: 5, StartOffset: 10, EndOffset: 120,
		},
		{
			Kind: model.KindEquation, LocalID: "eq:energy", Label: "eq:energy",
			Number: "1", LineStart: 9, LineEnd: 11, StartOffset: 140, EndOffset: 180,
		},
		{
			Kind: model.KindEquation, LocalID: "eq-2",
			Number: "2", LineStart: 15, LineEnd: 15, StartOffset: 200, EndOffset: 220,
		},
	}
}

func sampleOutline() []model.Heading {
	return []model.Heading{
		{Level: 1, Text: "Intro", Line: 1},
		{Level: 2, Text: "Results", Line: 8},
	}
}

func TestUpsertAndLookup(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertDocument("notes/analysis.md", sampleDecls(), sampleOutline(), 100); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}

	e, err := db.Lookup("notes/analysis#thm:main")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if e.DocumentID != "notes/analysis" || e.FilePath != "notes/analysis.md" {
		t.Errorf("entry document = %q / %q", e.DocumentID, e.FilePath)
	}
	if e.Title != "Main Theorem" || e.Number != "1" || e.SubKind != "theorem" {
		t.Errorf("entry = %+v", e)
	}
	if !e.Explicit {
		t.Errorf("explicit label should be marked explicit")
	}
	if e.QualifiedLabel() != "notes/analysis#thm:main" {
		t.Errorf("qualified label = %q", e.QualifiedLabel())
	}

	t.Run("missing label", func(t *testing.T) {
		_, err := db.Lookup("notes/analysis#thm:absent")
		if !errors.Is(err, ErrEntryNotFound) {
			t.Errorf("err = %v, want ErrEntryNotFound", err)
		}
	})

	t.Run("unqualified label", func(t *testing.T) {
		_, err := db.Lookup("thm:main")
		if !errors.Is(err, ErrEntryNotFound) {
			t.Errorf("err = %v, want ErrEntryNotFound", err)
		}
	})
}

func TestUpsertReplacesEntries(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertDocument("doc.md", sampleDecls(), sampleOutline(), 100); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}

	// Second upsert with one declaration fewer.
	if err := db.UpsertDocument("doc.md", sampleDecls()[:1], nil, 200); err != nil {
		t.Fatalf("second UpsertDocument: %v", err)
	}

	entries, err := db.EntriesForDocument("doc.md")
	if err != nil {
		t.Fatalf("EntriesForDocument: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after replacement, got %d", len(entries))
	}
	if entries[0].LocalID != "thm:main" {
		t.Errorf("surviving entry = %+v", entries[0])
	}

	mtime, err := db.GetFileMtime("doc.md")
	if err != nil {
		t.Fatalf("GetFileMtime: %v", err)
	}
	if mtime != 200 {
		t.Errorf("mtime = %d, want 200", mtime)
	}
}

func TestRenamePreservesEntries(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertDocument("old/name.md", sampleDecls(), sampleOutline(), 100); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	if err := db.RenameDocument("old/name.md", "new/name.md"); err != nil {
		t.Fatalf("RenameDocument: %v", err)
	}

	if _, err := db.Lookup("old/name#thm:main"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("old qualified label should miss, err = %v", err)
	}

	e, err := db.Lookup("new/name#thm:main")
	if err != nil {
		t.Fatalf("lookup under new path: %v", err)
	}
	if e.Number != "1" {
		t.Errorf("number lost across rename: %+v", e)
	}

	t.Run("unknown source path", func(t *testing.T) {
		err := db.RenameDocument("never/indexed.md", "x.md")
		if !errors.Is(err, ErrDocumentNotFound) {
			t.Errorf("err = %v, want ErrDocumentNotFound", err)
		}
	})
}

func TestRemoveDocument(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertDocument("doc.md", sampleDecls(), sampleOutline(), 100); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	if err := db.RemoveDocument("doc.md"); err != nil {
		t.Fatalf("RemoveDocument: %v", err)
	}

	if _, err := db.Lookup("doc#thm:main"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("entries should be gone, err = %v", err)
	}
	paths, err := db.AllDocumentPaths()
	if err != nil {
		t.Fatalf("AllDocumentPaths: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("paths = %v", paths)
	}

	// Removing an absent document is not an error.
	if err := db.RemoveDocument("doc.md"); err != nil {
		t.Errorf("second remove: %v", err)
	}
}

func TestDocumentDeclarationsRoundtrip(t *testing.T) {
	db := openTestDB(t)

	decls := sampleDecls()
	decls = append(decls, model.Declaration{
		Kind: model.KindEquation, LocalID: "eq-3", ManualTag: "A",
		LineStart: 20, LineEnd: 20,
	})
	decls = append(decls, model.Declaration{
		Kind: model.KindEquation, LocalID: "eq-4", NoNumber: true,
		LineStart: 25, LineEnd: 25,
	})

	if err := db.UpsertDocument("doc.md", decls, sampleOutline(), 100); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}

	got, outline, err := db.DocumentDeclarations("doc.md")
	if err != nil {
		t.Fatalf("DocumentDeclarations: %v", err)
	}
	if len(got) != len(decls) {
		t.Fatalf("got %d declarations, want %d", len(got), len(decls))
	}
	if got[0].Label != "thm:main" || got[0].Number != "1" {
		t.Errorf("explicit declaration = %+v", got[0])
	}
	if got[2].Label != "" {
		t.Errorf("generated local ID must not come back as explicit label: %+v", got[2])
	}
	if got[3].ManualTag != "A" {
		t.Errorf("manual tag lost: %+v", got[3])
	}
	if !got[4].NoNumber {
		t.Errorf("unnumbered declaration lost its opt-out: %+v", got[4])
	}
	if len(outline) != 2 || outline[1].Text != "Results" {
		t.Errorf("outline = %+v", outline)
	}

	t.Run("missing document", func(t *testing.T) {
		_, _, err := db.DocumentDeclarations("absent.md")
		if !errors.Is(err, ErrDocumentNotFound) {
			t.Errorf("err = %v, want ErrDocumentNotFound", err)
		}
	})
}

func TestUpdateNumbers(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertDocument("doc.md", sampleDecls(), nil, 100); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}

	renumbered := sampleDecls()
	renumbered[0].Number = "i"
	renumbered[1].Number = "ii"
	renumbered[2].Number = "iii"
	if err := db.UpdateNumbers("doc.md", renumbered); err != nil {
		t.Fatalf("UpdateNumbers: %v", err)
	}

	e, err := db.Lookup("doc#thm:main")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if e.Number != "i" {
		t.Errorf("number = %q, want i", e.Number)
	}

	// Line positions are untouched by renumbering.
	if e.LineStart != 3 || e.LineEnd != 5 {
		t.Errorf("positions changed: %+v", e)
	}
}

func TestAllEntriesOrdering(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertDocument("b.md", sampleDecls()[:1], nil, 100); err != nil {
		t.Fatalf("upsert b: %v", err)
	}
	if err := db.UpsertDocument("a.md", sampleDecls()[:2], nil, 100); err != nil {
		t.Fatalf("upsert a: %v", err)
	}

	entries, err := db.AllEntries()
	if err != nil {
		t.Fatalf("AllEntries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].FilePath != "a.md" || entries[2].FilePath != "b.md" {
		t.Errorf("entries not ordered by path: %v", entries)
	}
}

func TestRecentDocuments(t *testing.T) {
	db := openTestDB(t)

	for _, p := range []string{"a.md", "b.md", "c.md"} {
		if err := db.UpsertDocument(p, nil, nil, 100); err != nil {
			t.Fatalf("upsert %s: %v", p, err)
		}
	}

	if err := db.MarkVisited("b.md"); err != nil {
		t.Fatalf("MarkVisited: %v", err)
	}

	recent, err := db.RecentDocuments(10)
	if err != nil {
		t.Fatalf("RecentDocuments: %v", err)
	}
	if len(recent) != 1 || recent[0] != "b.md" {
		t.Errorf("recent = %v, want [b.md] (unvisited documents are omitted)", recent)
	}
}

func TestStats(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertDocument("doc.md", sampleDecls(), sampleOutline(), 100); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}

	stats, err := db.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.DocumentCount != 1 || stats.DeclarationCount != 3 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TheoremCount != 1 || stats.EquationCount != 2 {
		t.Errorf("kind split = %+v", stats)
	}
}

func TestIsFileStale(t *testing.T) {
	db := openTestDB(t)
	vault := t.TempDir()

	relPath := "doc.md"
	fullPath := filepath.Join(vault, relPath)
	if err := os.WriteFile(fullPath, []byte("# Doc\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	stat, err := os.Stat(fullPath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	t.Run("unindexed is stale", func(t *testing.T) {
		stale, err := db.IsFileStale(vault, relPath)
		if err != nil {
			t.Fatalf("IsFileStale: %v", err)
		}
		if !stale {
			t.Errorf("unindexed file should be stale")
		}
	})

	if err := db.UpsertDocument(relPath, nil, nil, stat.ModTime().Unix()); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}

	t.Run("fresh after indexing", func(t *testing.T) {
		stale, err := db.IsFileStale(vault, relPath)
		if err != nil {
			t.Fatalf("IsFileStale: %v", err)
		}
		if stale {
			t.Errorf("just-indexed file should not be stale")
		}
	})

	t.Run("stale after touch", func(t *testing.T) {
		future := stat.ModTime().Add(2 * time.Second)
		if err := os.Chtimes(fullPath, future, future); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
		stale, err := db.IsFileStale(vault, relPath)
		if err != nil {
			t.Fatalf("IsFileStale: %v", err)
		}
		if !stale {
			t.Errorf("touched file should be stale")
		}
	})

	t.Run("deleted on disk is stale", func(t *testing.T) {
		if err := os.Remove(fullPath); err != nil {
			t.Fatalf("remove: %v", err)
		}
		stale, err := db.IsFileStale(vault, relPath)
		if err != nil {
			t.Fatalf("IsFileStale: %v", err)
		}
		if !stale {
			t.Errorf("deleted file should be stale")
		}
	})
}

func TestRemoveDeletedFiles(t *testing.T) {
	db := openTestDB(t)
	vault := t.TempDir()

	if err := os.WriteFile(filepath.Join(vault, "keep.md"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, p := range []string{"keep.md", "gone.md"} {
		if err := db.UpsertDocument(p, nil, nil, 100); err != nil {
			t.Fatalf("upsert %s: %v", p, err)
		}
	}

	removed, err := db.RemoveDeletedFiles(vault)
	if err != nil {
		t.Fatalf("RemoveDeletedFiles: %v", err)
	}
	if len(removed) != 1 || removed[0] != "gone.md" {
		t.Errorf("removed = %v", removed)
	}

	paths, err := db.AllDocumentPaths()
	if err != nil {
		t.Fatalf("AllDocumentPaths: %v", err)
	}
	if len(paths) != 1 || paths[0] != "keep.md" {
		t.Errorf("paths = %v", paths)
	}
}
