package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/1rns/obsidian-math-booster/internal/pipeline"
	"github.com/1rns/obsidian-math-booster/internal/ui"
	"github.com/1rns/obsidian-math-booster/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the vault and keep the index current",
	Long: `Watches the vault directory and updates the index as documents are
saved, moved, or deleted.

The watcher:
- Monitors all .md files in the vault
- Debounces rapid changes (waits 100ms after the last save)
- Ignores .mathb/, .git/, .trash/, .obsidian/ directories
- Updates documents incrementally

Examples:
  # Watch the default vault
  mathb watch

  # Watch with debug logging
  mathb watch --debug

  # Watch a specific vault
  mathb watch --vault-path /path/to/vault`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Bool("debug", false, "Enable debug logging")
}

func runWatch(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	vaultPath := getVaultPath()

	logger, err := newLogger(debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := openIndex(vaultPath)
	if err != nil {
		return handleError(ErrDatabaseError, err, "Run 'mathb reindex' to rebuild the index")
	}
	defer db.Close()

	store, err := openStore(vaultPath)
	if err != nil {
		return handleError(ErrSettingsInvalid, err, "Fix .mathb/settings.yaml and try again")
	}

	pipe := pipeline.New(pipeline.Config{
		VaultPath: vaultPath,
		Database:  db,
		Settings:  store,
		Logger:    logger,
		OnBatch: func(done []string) {
			for _, p := range done {
				fmt.Println(ui.Successf("Updated %s", ui.FilePath(p)))
			}
		},
	})

	w, err := watcher.New(watcher.Config{
		VaultPath: vaultPath,
		Pipeline:  pipe,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Watching vault: %s\n", ui.FilePath(vaultPath))
	fmt.Println(ui.Hint("Press Ctrl+C to stop"))

	ctx := cmd.Context()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pipe.Start(ctx) })
	g.Go(func() error { return w.Start(ctx) })

	if err := g.Wait(); err != nil && err != ctx.Err() {
		return err
	}
	return nil
}
