// Package testutil provides reusable test utilities for integration tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestVault represents a temporary vault for testing.
type TestVault struct {
	Path  string
	t     *testing.T
	files map[string]string
}

// NewTestVault creates a new test vault builder.
// Call Build() to create the actual vault directory.
func NewTestVault(t *testing.T) *TestVault {
	t.Helper()
	return &TestVault{
		t:     t,
		files: make(map[string]string),
	}
}

// WithFile adds a file to the vault.
// The path is relative to the vault root.
func (v *TestVault) WithFile(path, content string) *TestVault {
	v.files[path] = content
	return v
}

// WithSettings sets the .mathb/settings.yaml content for the vault.
func (v *TestVault) WithSettings(yaml string) *TestVault {
	v.files[filepath.Join(".mathb", "settings.yaml")] = yaml
	return v
}

// Build creates the vault directory and all configured files.
// Returns the TestVault for method chaining.
func (v *TestVault) Build() *TestVault {
	v.t.Helper()

	v.Path = v.t.TempDir()

	if err := os.MkdirAll(filepath.Join(v.Path, ".mathb"), 0755); err != nil {
		v.t.Fatalf("failed to create .mathb directory: %v", err)
	}

	for path, content := range v.files {
		v.writeFile(path, content)
	}

	return v
}

// writeFile writes a file to the vault, creating directories as needed.
func (v *TestVault) writeFile(relPath, content string) {
	v.t.Helper()
	fullPath := filepath.Join(v.Path, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		v.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// WriteFile writes or replaces a file after Build, for change scenarios.
func (v *TestVault) WriteFile(relPath, content string) {
	v.t.Helper()
	v.writeFile(relPath, content)
}

// RemoveFile deletes a file from the built vault.
func (v *TestVault) RemoveFile(relPath string) {
	v.t.Helper()
	if err := os.Remove(filepath.Join(v.Path, relPath)); err != nil {
		v.t.Fatalf("failed to remove file %s: %v", relPath, err)
	}
}

// RenameFile moves a file inside the built vault.
func (v *TestVault) RenameFile(oldRel, newRel string) {
	v.t.Helper()
	newFull := filepath.Join(v.Path, newRel)
	if err := os.MkdirAll(filepath.Dir(newFull), 0755); err != nil {
		v.t.Fatalf("failed to create directory for %s: %v", newRel, err)
	}
	if err := os.Rename(filepath.Join(v.Path, oldRel), newFull); err != nil {
		v.t.Fatalf("failed to rename %s to %s: %v", oldRel, newRel, err)
	}
}

// ReadFile reads a file from the vault.
// Returns the content as a string.
func (v *TestVault) ReadFile(relPath string) string {
	v.t.Helper()
	fullPath := filepath.Join(v.Path, relPath)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		v.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}
	return string(content)
}

// FileExists checks if a file exists in the vault.
func (v *TestVault) FileExists(relPath string) bool {
	v.t.Helper()
	_, err := os.Stat(filepath.Join(v.Path, relPath))
	return err == nil
}

// TheoremDoc returns a small document with one labeled theorem and one
// labeled equation, handy as a default fixture.
func TheoremDoc() string {
	return `# Results

> [!math|{"type":"theorem","label":"thm:main","title":"Main Theorem"}]
> The main statement.

$$
E = mc^2 \label{eq:energy}
$$
`
}
