package watcher

import (
	"testing"

	"github.com/fsnotify/fsnotify"

	"github.com/1rns/obsidian-math-booster/internal/index"
	"github.com/1rns/obsidian-math-booster/internal/pipeline"
	"github.com/1rns/obsidian-math-booster/internal/settings"
	"github.com/1rns/obsidian-math-booster/internal/testutil"
)

func newTestWatcher(t *testing.T) (*Watcher, *pipeline.Pipeline) {
	t.Helper()
	v := testutil.NewTestVault(t).Build()
	db, err := index.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	p := pipeline.New(pipeline.Config{
		VaultPath: v.Path,
		Database:  db,
		Settings:  settings.NewStore(),
	})
	w, err := New(Config{VaultPath: v.Path, Pipeline: p})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w, p
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Errorf("empty config should be rejected")
	}
	if _, err := New(Config{VaultPath: "/tmp/vault"}); err == nil {
		t.Errorf("missing pipeline should be rejected")
	}
}

func TestHandleEventMarksDocumentStale(t *testing.T) {
	w, p := newTestWatcher(t)

	w.handleEvent(fsnotify.Event{
		Name: w.vaultPath + "/notes/doc.md",
		Op:   fsnotify.Write,
	})

	if p.State("notes/doc.md") != pipeline.StateStale {
		t.Errorf("write event should mark the document stale, state = %v", p.State("notes/doc.md"))
	}
}

func TestHandleEventIgnoresNonMarkdown(t *testing.T) {
	w, p := newTestWatcher(t)

	w.handleEvent(fsnotify.Event{
		Name: w.vaultPath + "/notes/image.png",
		Op:   fsnotify.Write,
	})

	if p.State("notes/image.png") != pipeline.StateUnindexed {
		t.Errorf("non-markdown event should be ignored")
	}
}

func TestHandleEventIgnoresStateDirs(t *testing.T) {
	w, p := newTestWatcher(t)

	for _, rel := range []string{".mathb/scratch.md", ".obsidian/note.md", ".git/x.md"} {
		w.handleEvent(fsnotify.Event{
			Name: w.vaultPath + "/" + rel,
			Op:   fsnotify.Write,
		})
		if p.State(rel) != pipeline.StateUnindexed {
			t.Errorf("%s should be ignored", rel)
		}
	}
}

func TestShouldIgnore(t *testing.T) {
	w, _ := newTestWatcher(t)

	tests := []struct {
		rel  string
		want bool
	}{
		{"notes/doc.md", false},
		{".mathb/index.db", true},
		{"sub/.trash/doc.md", true},
		{"node_modules/pkg/readme.md", true},
	}
	for _, tt := range tests {
		if got := w.shouldIgnore(tt.rel); got != tt.want {
			t.Errorf("shouldIgnore(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}
