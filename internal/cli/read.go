package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/1rns/obsidian-math-booster/internal/paths"
	"github.com/1rns/obsidian-math-booster/internal/ui"
	"github.com/1rns/obsidian-math-booster/internal/vault"
)

var readCmd = &cobra.Command{
	Use:   "read <document>",
	Short: "Render a document in the terminal",
	Long: `Renders a vault document as styled markdown. Reading a document marks
it as recently visited, which boosts its entries in 'mathb suggest'.

Examples:
  mathb read notes/analysis.md
  mathb read notes/analysis       # document ID works too
  mathb read notes/analysis --raw`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultPath := getVaultPath()
		raw, _ := cmd.Flags().GetBool("raw")

		// Accept either a file path or a document ID.
		relPath := paths.DocumentIDToFile(paths.FileToDocumentID(args[0]))

		content, err := vault.ReadDocument(vaultPath, relPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return handleErrorMsg(ErrFileNotFound,
					fmt.Sprintf("document not found: %s", args[0]), "")
			}
			return handleError(ErrFileReadError, err, "")
		}

		// Visit tracking is best effort; rendering must not fail on it.
		if db, derr := openIndex(vaultPath); derr == nil {
			_ = db.MarkVisited(relPath)
			db.Close()
		}

		if raw || isJSONOutput() {
			if isJSONOutput() {
				outputSuccess(map[string]string{"document": args[0], "content": content}, nil)
				return nil
			}
			fmt.Print(content)
			return nil
		}

		display := ui.NewDisplayContext()
		rendered, err := ui.RenderMarkdown(content, display.TermWidth)
		if err != nil {
			// Fall back to plain output rather than failing the read.
			fmt.Print(content)
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().Bool("raw", false, "Print the raw markdown without rendering")
}
