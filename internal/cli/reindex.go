package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/1rns/obsidian-math-booster/internal/index"
	"github.com/1rns/obsidian-math-booster/internal/ui"
	"github.com/1rns/obsidian-math-booster/internal/vault"
)

// ReindexResult is the JSON payload of the reindex command.
type ReindexResult struct {
	Indexed int  `json:"indexed"`
	Skipped int  `json:"skipped"`
	Removed int  `json:"removed"`
	Full    bool `json:"full"`
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Reindex the vault",
	Long: `Scans the vault's markdown files and rebuilds the numbering index.

By default, performs an incremental reindex that only processes files
whose modification time changed since they were last indexed. Deleted
files are detected and removed from the index.

Use --full to force a complete rebuild.

Examples:
  # Incremental reindex (default)
  mathb reindex

  # Full reindex (rebuild everything)
  mathb reindex --full`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultPath := getVaultPath()
		fullReindex, _ := cmd.Flags().GetBool("full")
		start := time.Now()

		if !jsonOutput {
			fmt.Printf("Reindexing vault: %s\n", ui.FilePath(vaultPath))
		}

		db, wasRebuilt, err := index.OpenWithRebuild(vaultPath)
		if err == index.ErrIndexLocked {
			return handleError(ErrDatabaseLocked, err, "Another process is rebuilding the index, try again shortly")
		}
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		if wasRebuilt {
			fullReindex = true
			if !jsonOutput {
				fmt.Println(ui.Info("Index schema was outdated - performing full reindex."))
			}
		}

		store, err := openStore(vaultPath)
		if err != nil {
			return handleError(ErrSettingsInvalid, err, "Fix .mathb/settings.yaml and try again")
		}

		pipe := newPipeline(vaultPath, db, store, zap.NewNop())

		var result ReindexResult
		result.Full = fullReindex

		if fullReindex {
			n, err := pipe.Rebuild(cmd.Context())
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
			result.Indexed = n
		} else {
			files, err := vault.ListMarkdownFiles(vaultPath)
			if err != nil {
				return handleError(ErrFileReadError, err, "")
			}
			for _, relPath := range files {
				stale, err := db.IsFileStale(vaultPath, relPath)
				if err != nil {
					return handleError(ErrDatabaseError, err, "")
				}
				if !stale && !store.IsExcluded(relPath) {
					result.Skipped++
					continue
				}
				if err := pipe.ApplyChange(relPath); err != nil {
					if !jsonOutput {
						fmt.Fprintf(os.Stderr, "Error indexing %s: %v\n", relPath, err)
					}
					continue
				}
				result.Indexed++
			}
			removed, err := db.RemoveDeletedFiles(vaultPath)
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
			result.Removed = len(removed)
		}

		elapsed := time.Since(start).Milliseconds()

		if isJSONOutput() {
			outputSuccess(result, &Meta{QueryTimeMs: elapsed})
			return nil
		}

		fmt.Println(ui.Successf("Indexed %d documents (%d unchanged, %d removed) in %dms",
			result.Indexed, result.Skipped, result.Removed, elapsed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
	reindexCmd.Flags().Bool("full", false, "Force a complete rebuild")
}
