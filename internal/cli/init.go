package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/1rns/obsidian-math-booster/internal/index"
	"github.com/1rns/obsidian-math-booster/internal/settings"
)

var initCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Initialize a vault for math indexing",
	Long: `Prepares a vault directory for use with mathb.

Creates:
  - .mathb/               (index + settings directory)
  - .mathb/settings.yaml  (numbering settings, root defaults)
  - .gitignore entries    (ignores the derived index)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		fmt.Printf("Initializing vault at: %s\n", path)

		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create vault directory: %w", err)
		}

		stateDir := filepath.Join(path, index.VaultDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", index.VaultDir, err)
		}

		// Seed the settings file with root defaults so the cascade has an
		// explicit root node.
		settingsPath := settingsFilePath(path)
		createdSettings := false
		if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
			store := settings.NewStore()
			store.SetOverride("", settings.RootOverride())
			if err := store.SaveTo(settingsPath); err != nil {
				return fmt.Errorf("failed to write settings.yaml: %w", err)
			}
			createdSettings = true
		}

		gitignoreStatus, err := ensureGitignore(path)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Ensured %s/ directory exists\n", index.VaultDir)
		if createdSettings {
			fmt.Println("✓ Created .mathb/settings.yaml (numbering settings)")
		} else {
			fmt.Println("• settings.yaml already exists (kept)")
		}
		switch gitignoreStatus {
		case "created":
			fmt.Println("✓ Created .gitignore")
		case "updated":
			fmt.Println("✓ Updated .gitignore (added index entries)")
		default:
			fmt.Println("• .gitignore already covers the index")
		}

		fmt.Println("\nVault initialized. Run 'mathb reindex' after adding documents.")
		return nil
	},
}

// ensureGitignore adds the derived index database to .gitignore. The
// settings file is deliberately not ignored: it is part of the vault.
func ensureGitignore(vaultPath string) (string, error) {
	gitignorePath := filepath.Join(vaultPath, ".gitignore")
	entry := index.VaultDir + "/index.db*"

	existing := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existing = string(data)
	}

	if strings.Contains(existing, entry) {
		return "unchanged", nil
	}

	status := "updated"
	var content string
	if existing == "" {
		status = "created"
		content = "# Derived index (rebuilt with 'mathb reindex')\n" + entry + "\n"
	} else {
		content = strings.TrimRight(existing, "\n") + "\n\n# mathb index\n" + entry + "\n"
	}

	if err := os.WriteFile(gitignorePath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write .gitignore: %w", err)
	}
	return status, nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
