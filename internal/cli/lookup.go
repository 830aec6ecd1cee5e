package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/1rns/obsidian-math-booster/internal/index"
	"github.com/1rns/obsidian-math-booster/internal/ui"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <document#label>",
	Short: "Resolve a fully-qualified label",
	Long: `Resolves a fully-qualified label to its entry: kind, title, computed
number, and source location.

The label has the form "<document-id>#<local-id>", e.g.
"notes/analysis#thm:main".

Examples:
  mathb lookup notes/analysis#thm:main
  mathb lookup notes/analysis#eq-3 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultPath := getVaultPath()
		label := args[0]
		start := time.Now()

		db, err := openIndex(vaultPath)
		if err != nil {
			return handleError(ErrDatabaseError, err, "Run 'mathb reindex' to rebuild the index")
		}
		defer db.Close()

		entry, err := db.Lookup(label)
		if err == index.ErrEntryNotFound {
			return handleErrorMsg(ErrEntryNotFound,
				fmt.Sprintf("no entry for label '%s'", label),
				"Check the label with 'mathb suggest' or run 'mathb reindex'")
		}
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		elapsed := time.Since(start).Milliseconds()

		if isJSONOutput() {
			outputSuccess(entry, &Meta{QueryTimeMs: elapsed})
			return nil
		}

		title := entry.Title
		if title == "" {
			title = ui.Hint("(untitled)")
		}
		number := entry.Number
		if number == "" {
			number = ui.Hint("(unnumbered)")
		} else {
			number = ui.Accent.Render(number)
		}

		fmt.Printf("%s %s\n", ui.Bold.Render(entry.KindName()), number)
		fmt.Printf("%s  %s\n", ui.Muted.Render("Title:   "), title)
		fmt.Printf("%s  %s\n", ui.Muted.Render("Label:   "), entry.QualifiedLabel())
		fmt.Printf("%s  %s\n", ui.Muted.Render("Location:"),
			ui.FilePath(fmt.Sprintf("%s:%d", entry.FilePath, entry.LineStart)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
