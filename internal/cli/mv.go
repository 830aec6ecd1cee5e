package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/1rns/obsidian-math-booster/internal/index"
	"github.com/1rns/obsidian-math-booster/internal/paths"
	"github.com/1rns/obsidian-math-booster/internal/ui"
)

var mvCmd = &cobra.Command{
	Use:   "mv <old> <new>",
	Short: "Move or rename a document",
	Long: `Moves a document inside the vault and updates the index in place.

The document's entries keep their numbers and local labels; only the
document half of each qualified label changes. References that used the
old document path stop resolving.

Examples:
  mathb mv notes/draft.md notes/analysis.md
  mathb mv notes/analysis.md archive/analysis.md`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultPath := getVaultPath()
		oldRel := paths.DocumentIDToFile(paths.FileToDocumentID(args[0]))
		newRel := paths.DocumentIDToFile(paths.FileToDocumentID(args[1]))

		oldFull := filepath.Join(vaultPath, filepath.FromSlash(oldRel))
		newFull := filepath.Join(vaultPath, filepath.FromSlash(newRel))
		if err := paths.ValidateWithinVault(vaultPath, newFull); err != nil {
			return handleError(ErrFileOutsideVault, err, "")
		}

		if _, err := os.Stat(oldFull); os.IsNotExist(err) {
			return handleErrorMsg(ErrFileNotFound,
				fmt.Sprintf("document not found: %s", oldRel), "")
		}
		if _, err := os.Stat(newFull); err == nil {
			return handleErrorMsg(ErrFileExists,
				fmt.Sprintf("destination already exists: %s", newRel), "")
		}

		if err := os.MkdirAll(filepath.Dir(newFull), 0755); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
		if err := os.Rename(oldFull, newFull); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		db, err := openIndex(vaultPath)
		if err != nil {
			return handleError(ErrDatabaseError, err, "Run 'mathb reindex' to rebuild the index")
		}
		defer db.Close()

		err = db.RenameDocument(oldRel, newRel)
		if err != nil && err != index.ErrDocumentNotFound {
			return handleError(ErrDatabaseError, err, "Run 'mathb reindex'")
		}

		if isJSONOutput() {
			outputSuccess(map[string]string{
				"old": paths.FileToDocumentID(oldRel),
				"new": paths.FileToDocumentID(newRel),
			}, nil)
			return nil
		}

		fmt.Println(ui.Successf("Moved %s -> %s", ui.FilePath(oldRel), ui.FilePath(newRel)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mvCmd)
}
