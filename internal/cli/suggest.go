package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/1rns/obsidian-math-booster/internal/search"
	"github.com/1rns/obsidian-math-booster/internal/ui"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest [query]",
	Short: "Autocomplete reference candidates",
	Long: `Suggests reference targets for a partial query, ranked by match
quality (prefix before substring) and locality (active document before
recently visited documents before the rest of the vault).

An empty query lists everything in locality order.

Examples:
  mathb suggest thm
  mathb suggest cauchy --doc notes/analysis.md
  mathb suggest --doc notes/analysis.md --limit 5 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultPath := getVaultPath()
		activeDoc, _ := cmd.Flags().GetString("doc")
		limit, _ := cmd.Flags().GetInt("limit")
		start := time.Now()

		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		db, err := openIndex(vaultPath)
		if err != nil {
			return handleError(ErrDatabaseError, err, "Run 'mathb reindex' to rebuild the index")
		}
		defer db.Close()

		entries, err := db.AllEntries()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		recent, err := db.RecentDocuments(10)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		candidates := search.Suggest(entries, query, search.Context{
			ActiveDocument: activeDoc,
			Recent:         recent,
		}, limit)

		elapsed := time.Since(start).Milliseconds()

		if isJSONOutput() {
			outputSuccess(candidates, &Meta{Count: len(candidates), QueryTimeMs: elapsed})
			return nil
		}

		if len(candidates) == 0 {
			fmt.Println(ui.Hint("No matches."))
			return nil
		}

		table := ui.NewTable(4)
		for _, c := range candidates {
			e := c.Entry
			number := e.Number
			if number == "" {
				number = "-"
			}
			table.AddRow(
				e.QualifiedLabel(),
				e.KindName(),
				ui.Accent.Render(number),
				ui.Muted.Render(ui.TruncateWithEllipsis(e.Title, 40)),
			)
		}
		fmt.Print(table.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	suggestCmd.Flags().String("doc", "", "Active document for locality ranking")
	suggestCmd.Flags().Int("limit", 20, "Maximum number of suggestions")
}
