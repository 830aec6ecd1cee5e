package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/1rns/obsidian-math-booster/internal/model"
	"github.com/1rns/obsidian-math-booster/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list [document]",
	Short: "List indexed theorems and equations",
	Long: `Lists indexed entries with their computed numbers.

With no argument, lists every entry in the vault. With a document path
(or document ID), lists only that document's entries.

Examples:
  mathb list
  mathb list notes/analysis.md
  mathb list --kind equation
  mathb list --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultPath := getVaultPath()
		kindFilter, _ := cmd.Flags().GetString("kind")
		start := time.Now()

		db, err := openIndex(vaultPath)
		if err != nil {
			return handleError(ErrDatabaseError, err, "Run 'mathb reindex' to rebuild the index")
		}
		defer db.Close()

		var entries []model.Entry
		if len(args) == 1 {
			entries, err = db.EntriesForDocument(args[0])
		} else {
			entries, err = db.AllEntries()
		}
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		if kindFilter != "" {
			filtered := entries[:0]
			for _, e := range entries {
				if e.KindName() == kindFilter || string(e.Kind) == kindFilter {
					filtered = append(filtered, e)
				}
			}
			entries = filtered
		}

		elapsed := time.Since(start).Milliseconds()

		if isJSONOutput() {
			outputSuccess(entries, &Meta{Count: len(entries), QueryTimeMs: elapsed})
			return nil
		}

		if len(entries) == 0 {
			fmt.Println(ui.Hint("No entries indexed. Run 'mathb reindex' first."))
			return nil
		}

		table := ui.NewTable(4)
		for _, e := range entries {
			number := e.Number
			if number == "" {
				number = "-"
			}
			table.AddRow(
				ui.Accent.Render(number),
				e.KindName(),
				e.QualifiedLabel(),
				ui.Muted.Render(fmt.Sprintf("%s:%d", e.FilePath, e.LineStart)),
			)
		}
		fmt.Print(table.String())
		fmt.Println(ui.Hint(fmt.Sprintf("%d entries", len(entries))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().String("kind", "", "Filter by kind (theorem sub-kind or 'equation')")
}
