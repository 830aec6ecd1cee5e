package paths

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNormalizeRel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"notes/analysis.md", "notes/analysis.md"},
		{"./notes/analysis.md", "notes/analysis.md"},
		{"/notes/analysis.md", "notes/analysis.md"},
		{"notes//deep///doc.md", "notes/deep/doc.md"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeRel(tt.in); got != tt.want {
			t.Errorf("NormalizeRel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDocumentIDConversion(t *testing.T) {
	if got := FileToDocumentID("notes/analysis.md"); got != "notes/analysis" {
		t.Errorf("FileToDocumentID = %q", got)
	}
	if got := FileToDocumentID("notes/analysis"); got != "notes/analysis" {
		t.Errorf("FileToDocumentID without extension = %q", got)
	}
	if got := DocumentIDToFile("notes/analysis"); got != "notes/analysis.md" {
		t.Errorf("DocumentIDToFile = %q", got)
	}
	if got := DocumentIDToFile("notes/analysis.md"); got != "notes/analysis.md" {
		t.Errorf("DocumentIDToFile must not double the extension, got %q", got)
	}
}

func TestAncestors(t *testing.T) {
	got := Ancestors("a/b/c.md")
	want := []string{"a/b/c.md", "a/b", "a", ""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Ancestors = %v, want %v", got, want)
	}

	t.Run("root only", func(t *testing.T) {
		got := Ancestors("")
		if !reflect.DeepEqual(got, []string{""}) {
			t.Errorf("Ancestors(\"\") = %v", got)
		}
	})
}

func TestIsDescendant(t *testing.T) {
	tests := []struct {
		node, path string
		want       bool
	}{
		{"", "anything/at/all.md", true},
		{"a", "a", true},
		{"a", "a/b.md", true},
		{"a", "ab/c.md", false},
		{"a/b", "a/b/c/d.md", true},
		{"a/b", "a/c.md", false},
	}
	for _, tt := range tests {
		if got := IsDescendant(tt.node, tt.path); got != tt.want {
			t.Errorf("IsDescendant(%q, %q) = %v, want %v", tt.node, tt.path, got, tt.want)
		}
	}
}

func TestValidateWithinVault(t *testing.T) {
	vault := t.TempDir()

	if err := ValidateWithinVault(vault, filepath.Join(vault, "notes", "doc.md")); err != nil {
		t.Errorf("inside path rejected: %v", err)
	}
	if err := ValidateWithinVault(vault, vault); err != nil {
		t.Errorf("vault root rejected: %v", err)
	}

	err := ValidateWithinVault(vault, filepath.Join(vault, "..", "outside.md"))
	if !errors.Is(err, ErrPathOutsideVault) {
		t.Errorf("escape not rejected, err = %v", err)
	}
}
