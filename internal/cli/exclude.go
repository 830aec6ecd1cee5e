package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/1rns/obsidian-math-booster/internal/ui"
)

var excludeCmd = &cobra.Command{
	Use:   "exclude <path>",
	Short: "Exclude a document or folder from indexing",
	Long: `Adds a document or folder to the exclusion list. Excluded documents
are removed from the index immediately and skipped by future scans.

Use --remove to lift an exclusion; the affected documents are indexed
again on the next reindex or watch event.

Examples:
  mathb exclude drafts
  mathb exclude notes/scratch.md
  mathb exclude drafts --remove
  mathb exclude --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultPath := getVaultPath()
		remove, _ := cmd.Flags().GetBool("remove")
		list, _ := cmd.Flags().GetBool("list")

		store, err := openStore(vaultPath)
		if err != nil {
			return handleError(ErrSettingsInvalid, err, "Fix .mathb/settings.yaml and try again")
		}

		if list {
			paths := store.ExcludedPaths()
			if isJSONOutput() {
				outputSuccess(paths, &Meta{Count: len(paths)})
				return nil
			}
			if len(paths) == 0 {
				fmt.Println(ui.Hint("Nothing is excluded."))
				return nil
			}
			for _, p := range paths {
				fmt.Println(ui.FilePath(p))
			}
			return nil
		}

		if len(args) != 1 {
			return handleErrorMsg(ErrMissingArgument, "a path is required (or use --list)", "")
		}
		path := args[0]

		if remove {
			store.Unexclude(path)
		} else {
			store.Exclude(path)
		}
		if err := store.Save(); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		db, err := openIndex(vaultPath)
		if err != nil {
			return handleError(ErrDatabaseError, err, "Run 'mathb reindex' to rebuild the index")
		}
		defer db.Close()

		pipe := newPipeline(vaultPath, db, store, zap.NewNop())
		affected, err := pipe.ApplySettings(path)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]any{
				"path":     path,
				"excluded": !remove,
				"affected": len(affected),
			}, nil)
			return nil
		}

		if remove {
			fmt.Println(ui.Successf("Removed exclusion for %s (reindex to pick the documents up)", path))
		} else {
			fmt.Println(ui.Successf("Excluded %s (%d documents dropped from the index)", path, len(affected)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(excludeCmd)
	excludeCmd.Flags().Bool("remove", false, "Lift the exclusion instead of adding it")
	excludeCmd.Flags().Bool("list", false, "List excluded paths")
}
