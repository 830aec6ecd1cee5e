package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/1rns/obsidian-math-booster/internal/index"
	"github.com/1rns/obsidian-math-booster/internal/scanner"
	"github.com/1rns/obsidian-math-booster/internal/ui"
	"github.com/1rns/obsidian-math-booster/internal/vault"
)

var tagCmd = &cobra.Command{
	Use:   "tag <document#label>",
	Short: "Freeze an automatic number into a static tag",
	Long: `Converts an entry's current automatic number into a literal tag
written into the document: equations get a \tag{...}, theorem callouts
get their number field set.

From then on the entry keeps that number regardless of settings changes
or renumbering. The document is modified atomically; if the write fails
nothing changes, in the file or in the index.

Examples:
  mathb tag notes/analysis#eq-3
  mathb tag notes/analysis#thm:main`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultPath := getVaultPath()
		label := args[0]

		db, err := openIndex(vaultPath)
		if err != nil {
			return handleError(ErrDatabaseError, err, "Run 'mathb reindex' to rebuild the index")
		}
		defer db.Close()

		entry, err := db.Lookup(label)
		if err == index.ErrEntryNotFound {
			return handleErrorMsg(ErrEntryNotFound,
				fmt.Sprintf("no entry for label '%s'", label),
				"Check the label with 'mathb suggest'")
		}
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		if entry.Number == "" {
			return handleErrorMsg(ErrEntryStatic,
				fmt.Sprintf("'%s' is unnumbered, nothing to freeze", label), "")
		}

		// Rescan the live file: index offsets may trail unsaved edits, and
		// the write must target the document as it is now.
		content, err := vault.ReadDocument(vaultPath, entry.FilePath)
		if err != nil {
			return handleError(ErrFileReadError, err, "")
		}
		res := scanner.Scan(content)

		var found bool
		for _, d := range res.Declarations {
			if d.LocalID != entry.LocalID {
				continue
			}
			found = true

			raw := content[d.StartOffset:d.EndOffset]
			fragment, serr := scanner.Staticize(raw, d, entry.Number)
			if serr != nil {
				return handleErrorMsg(ErrEntryStatic,
					fmt.Sprintf("cannot freeze '%s': %v", label, serr), "")
			}

			if werr := vault.ReplaceRange(vaultPath, entry.FilePath, d.StartOffset, d.EndOffset, fragment); werr != nil {
				// The file is unchanged, so the index stays as it was.
				return handleError(ErrFileWriteError, werr, "")
			}
			break
		}
		if !found {
			return handleErrorMsg(ErrEntryNotFound,
				fmt.Sprintf("'%s' is indexed but no longer present in %s; reindex first", label, entry.FilePath),
				"Run 'mathb reindex'")
		}

		// Bring the index in line with the rewritten document.
		store, err := openStore(vaultPath)
		if err != nil {
			return handleError(ErrSettingsInvalid, err, "")
		}
		pipe := newPipeline(vaultPath, db, store, zap.NewNop())
		if err := pipe.ApplyChange(entry.FilePath); err != nil {
			return handleError(ErrDatabaseError, err, "Run 'mathb reindex'")
		}

		if isJSONOutput() {
			outputSuccess(map[string]any{
				"label":  label,
				"number": entry.Number,
			}, nil)
			return nil
		}

		fmt.Println(ui.Successf("Froze %s as %s in %s",
			label, ui.Accent.Render(entry.Number), ui.FilePath(entry.FilePath)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tagCmd)
}
