// Package paths provides canonical helpers for converting between
// vault-relative markdown file paths (e.g. "notes/analysis.md") and
// document IDs (e.g. "notes/analysis"), and for the tree walk the
// settings cascade performs over a path.
package paths

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrPathOutsideVault indicates a path escapes the vault root.
var ErrPathOutsideVault = errors.New("path is outside the vault")

// NormalizeRel normalizes a vault-relative path-like value:
// - converts OS separators to '/'
// - trims leading "./" and leading "/"
// - collapses repeated '/'
func NormalizeRel(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}

// FileToDocumentID converts a vault-relative file path to a document ID
// by normalizing separators and stripping a trailing ".md".
func FileToDocumentID(filePath string) string {
	return strings.TrimSuffix(NormalizeRel(filePath), ".md")
}

// DocumentIDToFile converts a document ID to a vault-relative markdown
// file path.
func DocumentIDToFile(docID string) string {
	id := strings.TrimSuffix(NormalizeRel(docID), ".md")
	return id + ".md"
}

// Ancestors returns the settings-cascade walk for a path, closest first,
// ending with the root (""). The path itself is included.
//
//	Ancestors("a/b/c.md") -> ["a/b/c.md", "a/b", "a", ""]
func Ancestors(p string) []string {
	p = NormalizeRel(p)
	out := []string{p}
	for p != "" {
		i := strings.LastIndex(p, "/")
		if i < 0 {
			p = ""
		} else {
			p = p[:i]
		}
		out = append(out, p)
	}
	return out
}

// IsDescendant reports whether path lives under node in the folder tree.
// The root node ("") contains everything; a node contains itself.
func IsDescendant(node, path string) bool {
	node = NormalizeRel(node)
	path = NormalizeRel(path)
	if node == "" || node == path {
		return true
	}
	return strings.HasPrefix(path, node+"/")
}

// ValidateWithinVault verifies that fullPath resolves inside vaultPath.
// Both paths may be relative; they are resolved to absolute form first.
func ValidateWithinVault(vaultPath, fullPath string) error {
	absVault, err := filepath.Abs(vaultPath)
	if err != nil {
		return err
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(absVault, absPath)
	if err != nil {
		return ErrPathOutsideVault
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ErrPathOutsideVault
	}
	return nil
}
