package vault

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/1rns/obsidian-math-booster/internal/atomicfile"
	"github.com/1rns/obsidian-math-booster/internal/paths"
)

// ReplaceRange splices text into a file between byte offsets [start,
// end), writing the result atomically. Offsets outside the file are an
// error; nothing is written on failure, so callers can safely defer
// index updates until the write succeeds.
func ReplaceRange(vaultPath, relPath string, start, end int, text string) error {
	fullPath := filepath.Join(vaultPath, filepath.FromSlash(relPath))
	if err := paths.ValidateWithinVault(vaultPath, fullPath); err != nil {
		return err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", relPath, err)
	}

	if start < 0 || end < start || end > len(content) {
		return fmt.Errorf("range [%d,%d) out of bounds for %s (%d bytes)", start, end, relPath, len(content))
	}

	out := make([]byte, 0, len(content)-(end-start)+len(text))
	out = append(out, content[:start]...)
	out = append(out, text...)
	out = append(out, content[end:]...)

	if err := atomicfile.WriteFile(fullPath, out, 0); err != nil {
		return fmt.Errorf("write %s: %w", relPath, err)
	}
	return nil
}

// ReadDocument reads a document's content.
func ReadDocument(vaultPath, relPath string) (string, error) {
	fullPath := filepath.Join(vaultPath, filepath.FromSlash(relPath))
	if err := paths.ValidateWithinVault(vaultPath, fullPath); err != nil {
		return "", err
	}
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", relPath, err)
	}
	return string(content), nil
}
