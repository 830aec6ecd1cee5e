package vault

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/1rns/obsidian-math-booster/internal/paths"
)

func writeVaultFile(t *testing.T, vaultPath, relPath, content string) {
	t.Helper()
	fullPath := filepath.Join(vaultPath, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", relPath, err)
	}
}

func TestListMarkdownFiles(t *testing.T) {
	vault := t.TempDir()
	writeVaultFile(t, vault, "top.md", "# Top\n")
	writeVaultFile(t, vault, "notes/deep.md", "# Deep\n")
	writeVaultFile(t, vault, "notes/image.png", "not markdown")
	writeVaultFile(t, vault, ".mathb/hidden.md", "state dir")
	writeVaultFile(t, vault, ".obsidian/plugin.md", "app dir")
	writeVaultFile(t, vault, ".git/objects/x.md", "git dir")

	got, err := ListMarkdownFiles(vault)
	if err != nil {
		t.Fatalf("ListMarkdownFiles: %v", err)
	}
	sort.Strings(got)

	want := []string{"notes/deep.md", "top.md"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWalkMarkdownFilesScans(t *testing.T) {
	vault := t.TempDir()
	writeVaultFile(t, vault, "doc.md", "# Doc\n\n$$ x = 1 \\label{eq:x} $$\n")

	var results []WalkResult
	err := WalkMarkdownFiles(vault, func(r WalkResult) error {
		results = append(results, r)
		return nil
	})
	if err != nil {
		t.Fatalf("WalkMarkdownFiles: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}
	r := results[0]
	if r.Error != nil {
		t.Fatalf("result error: %v", r.Error)
	}
	if r.RelativePath != "doc.md" {
		t.Errorf("relative path = %q", r.RelativePath)
	}
	if r.FileMtime == 0 {
		t.Errorf("mtime not captured")
	}
	if r.Scan == nil || len(r.Scan.Declarations) != 1 {
		t.Fatalf("scan = %+v", r.Scan)
	}
	if r.Scan.Declarations[0].Label != "eq:x" {
		t.Errorf("scanned declaration = %+v", r.Scan.Declarations[0])
	}
}

func TestWalkStopsOnHandlerError(t *testing.T) {
	vault := t.TempDir()
	writeVaultFile(t, vault, "a.md", "a")
	writeVaultFile(t, vault, "b.md", "b")

	sentinel := errors.New("stop")
	count := 0
	err := WalkMarkdownFiles(vault, func(r WalkResult) error {
		count++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v", err)
	}
	if count != 1 {
		t.Errorf("handler ran %d times", count)
	}
}

func TestShouldSkipDir(t *testing.T) {
	for _, name := range []string{".mathb", ".git", ".obsidian", ".trash", "node_modules"} {
		if !ShouldSkipDir(name) {
			t.Errorf("%q should be skipped", name)
		}
	}
	for _, name := range []string{"notes", "archive", ".hidden-notes"} {
		if ShouldSkipDir(name) {
			t.Errorf("%q should not be skipped", name)
		}
	}
}

func TestReplaceRange(t *testing.T) {
	vault := t.TempDir()
	writeVaultFile(t, vault, "doc.md", "before MIDDLE after")

	start := strings.Index("before MIDDLE after", "MIDDLE")
	if err := ReplaceRange(vault, "doc.md", start, start+len("MIDDLE"), "X"); err != nil {
		t.Fatalf("ReplaceRange: %v", err)
	}

	got, err := ReadDocument(vault, "doc.md")
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if got != "before X after" {
		t.Errorf("got %q", got)
	}

	t.Run("out of bounds leaves the file alone", func(t *testing.T) {
		if err := ReplaceRange(vault, "doc.md", 5, 999, "Y"); err == nil {
			t.Fatalf("expected an error")
		}
		got, err := ReadDocument(vault, "doc.md")
		if err != nil {
			t.Fatalf("ReadDocument: %v", err)
		}
		if got != "before X after" {
			t.Errorf("file changed on failed replace: %q", got)
		}
	})

	t.Run("escape from the vault is rejected", func(t *testing.T) {
		err := ReplaceRange(vault, "../outside.md", 0, 0, "Y")
		if !errors.Is(err, paths.ErrPathOutsideVault) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestReadDocumentMissing(t *testing.T) {
	vault := t.TempDir()
	_, err := ReadDocument(vault, "absent.md")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want wrapped os.ErrNotExist", err)
	}
}
