// Package vault provides file enumeration and in-place editing for a
// markdown vault.
package vault

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/1rns/obsidian-math-booster/internal/index"
	"github.com/1rns/obsidian-math-booster/internal/paths"
	"github.com/1rns/obsidian-math-booster/internal/scanner"
)

// WalkResult contains the result of processing one markdown file.
type WalkResult struct {
	Path         string
	RelativePath string
	Scan         *scanner.Result
	FileMtime    int64
	Error        error
}

// skippedDirs are never walked or watched.
var skippedDirs = map[string]struct{}{
	index.VaultDir: {},
	".git":         {},
	".trash":       {},
	".obsidian":    {},
	"node_modules": {},
}

// ShouldSkipDir reports whether a directory name is excluded from
// walking and watching.
func ShouldSkipDir(name string) bool {
	_, ok := skippedDirs[name]
	return ok
}

// WalkMarkdownFiles walks all markdown files in a vault and calls the
// handler for each. It skips the state directories, verifies files stay
// within the vault, and scans each document.
func WalkMarkdownFiles(vaultPath string, handler func(result WalkResult) error) error {
	return filepath.WalkDir(vaultPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			relativePath, _ := filepath.Rel(vaultPath, path)
			return handler(WalkResult{Path: path, RelativePath: relativePath, Error: err})
		}

		if d.IsDir() {
			if ShouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".md") {
			return nil
		}

		if err := paths.ValidateWithinVault(vaultPath, path); err != nil {
			if errors.Is(err, paths.ErrPathOutsideVault) {
				return nil
			}
			relativePath, _ := filepath.Rel(vaultPath, path)
			return handler(WalkResult{Path: path, RelativePath: relativePath, Error: err})
		}

		relativePath, _ := filepath.Rel(vaultPath, path)
		relativePath = filepath.ToSlash(relativePath)

		info, err := d.Info()
		if err != nil {
			return handler(WalkResult{Path: path, RelativePath: relativePath, Error: err})
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return handler(WalkResult{Path: path, RelativePath: relativePath, Error: err})
		}

		return handler(WalkResult{
			Path:         path,
			RelativePath: relativePath,
			Scan:         scanner.Scan(string(content)),
			FileMtime:    info.ModTime().Unix(),
		})
	})
}

// ListMarkdownFiles returns the vault-relative paths of all markdown
// files, without scanning them.
func ListMarkdownFiles(vaultPath string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(vaultPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // best-effort enumeration
		}
		if d.IsDir() {
			if ShouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, err := filepath.Rel(vaultPath, path)
		if err != nil {
			return nil
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	return out, err
}
