package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/1rns/obsidian-math-booster/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Long: `Displays statistics about the vault index.

Examples:
  mathb stats
  mathb stats --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultPath := getVaultPath()
		start := time.Now()

		db, err := openIndex(vaultPath)
		if err != nil {
			return handleError(ErrDatabaseError, err, "Run 'mathb reindex' to rebuild the index")
		}
		defer db.Close()

		stats, err := db.Stats()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		elapsed := time.Since(start).Milliseconds()

		if isJSONOutput() {
			outputSuccess(stats, &Meta{QueryTimeMs: elapsed})
			return nil
		}

		fmt.Println(ui.Header("Vault Statistics"))
		fmt.Printf("%s  %s\n", ui.Muted.Render("Documents:   "), ui.Accent.Render(fmt.Sprintf("%d", stats.DocumentCount)))
		fmt.Printf("%s  %s\n", ui.Muted.Render("Declarations:"), ui.Accent.Render(fmt.Sprintf("%d", stats.DeclarationCount)))
		fmt.Printf("%s  %s\n", ui.Muted.Render("Theorems:    "), ui.Accent.Render(fmt.Sprintf("%d", stats.TheoremCount)))
		fmt.Printf("%s  %s\n", ui.Muted.Render("Equations:   "), ui.Accent.Render(fmt.Sprintf("%d", stats.EquationCount)))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
