package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/1rns/obsidian-math-booster/internal/settings"
	"github.com/1rns/obsidian-math-booster/internal/ui"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and change numbering settings",
	Long: `Numbering settings cascade from the vault root down through folders
to individual documents. Each level overrides only the keys it sets.

Changing a setting renumbers every affected document from the index;
no files are rescanned.`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Show effective settings for a path",
	Long: `Shows the effective (fully resolved) settings for a document or
folder. With no argument, shows the vault root settings.

Examples:
  mathb settings show
  mathb settings show notes/analysis.md
  mathb settings show notes --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultPath := getVaultPath()
		path := ""
		if len(args) == 1 {
			path = args[0]
		}

		store, err := openStore(vaultPath)
		if err != nil {
			return handleError(ErrSettingsInvalid, err, "Fix .mathb/settings.yaml and try again")
		}

		eff := store.Resolve(path)

		if isJSONOutput() {
			outputSuccess(eff, nil)
			return nil
		}

		target := path
		if target == "" {
			target = "(vault root)"
		}
		fmt.Println(ui.Header("Effective settings for " + target))
		table := ui.NewTable(2)
		table.AddRow("theorem_style", string(eff.TheoremStyle))
		table.AddRow("equation_style", string(eff.EquationStyle))
		table.AddRow("scope", string(eff.Scope))
		table.AddRow("section_depth", strconv.Itoa(eff.SectionDepth))
		table.AddRow("prefix_headings", strconv.FormatBool(eff.PrefixHeadings))
		table.AddRow("prefix_separator", eff.PrefixSeparator)
		table.AddRow("start_at", strconv.Itoa(eff.StartAt))
		table.AddRow("shared_streams", strconv.FormatBool(eff.SharedStreams))
		table.AddRow("tag_format", eff.TagFormat)
		table.AddRow("excluded", strconv.FormatBool(eff.Excluded))
		fmt.Print(table.String())
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <path> <key> <value>",
	Short: "Set a setting override at a path",
	Long: `Sets one key of the override attached to a folder or document.
Use "." or "/" as the path for the vault root.

Keys: theorem_style, equation_style, scope, section_depth,
prefix_headings, prefix_separator, start_at, shared_streams,
tag_format, excluded.

Affected documents are renumbered immediately.

Examples:
  mathb settings set . theorem_style roman
  mathb settings set notes scope section
  mathb settings set notes/analysis.md start_at 10`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		node, key, value := rootNode(args[0]), args[1], args[2]
		return mutateSettings(cmd, node, func(o *settings.Override) error {
			return applySettingKey(o, key, value)
		})
	},
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset <path> <key>",
	Short: "Remove a setting override key at a path",
	Long: `Removes one key from the override attached to a folder or document,
so the key inherits from the nearest ancestor again. Removing the last
key removes the override node.

Examples:
  mathb settings unset notes scope
  mathb settings unset notes/analysis.md start_at`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		node, key := rootNode(args[0]), args[1]
		return mutateSettings(cmd, node, func(o *settings.Override) error {
			return clearSettingKey(o, key)
		})
	},
}

var settingsNodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List paths that carry setting overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultPath := getVaultPath()

		store, err := openStore(vaultPath)
		if err != nil {
			return handleError(ErrSettingsInvalid, err, "")
		}

		type nodeInfo struct {
			Path     string            `json:"path"`
			Override settings.Override `json:"override"`
		}
		var nodes []nodeInfo
		for _, n := range store.Nodes() {
			o, _ := store.OverrideAt(n)
			nodes = append(nodes, nodeInfo{Path: n, Override: o})
		}

		if isJSONOutput() {
			outputSuccess(nodes, &Meta{Count: len(nodes)})
			return nil
		}

		if len(nodes) == 0 {
			fmt.Println(ui.Hint("No overrides; root defaults apply everywhere."))
			return nil
		}
		for _, n := range nodes {
			label := n.Path
			if label == "" {
				label = "(root)"
			}
			fmt.Println(ui.Accent.Render(label))
		}
		return nil
	},
}

// mutateSettings applies an override edit at node, persists the store,
// and renumbers the affected documents.
func mutateSettings(cmd *cobra.Command, node string, edit func(*settings.Override) error) error {
	vaultPath := getVaultPath()

	store, err := openStore(vaultPath)
	if err != nil {
		return handleError(ErrSettingsInvalid, err, "Fix .mathb/settings.yaml and try again")
	}

	o, _ := store.OverrideAt(node)
	if err := edit(&o); err != nil {
		return handleError(ErrSettingsValue, err, "")
	}
	store.SetOverride(node, o)

	if err := store.Save(); err != nil {
		return handleError(ErrFileWriteError, err, "")
	}

	db, err := openIndex(vaultPath)
	if err != nil {
		return handleError(ErrDatabaseError, err, "Run 'mathb reindex' to rebuild the index")
	}
	defer db.Close()

	pipe := newPipeline(vaultPath, db, store, zap.NewNop())
	renumbered, err := pipe.ApplySettings(node)
	if err != nil {
		return handleError(ErrDatabaseError, err, "")
	}

	if isJSONOutput() {
		outputSuccess(map[string]any{
			"node":       node,
			"renumbered": len(renumbered),
		}, nil)
		return nil
	}

	fmt.Println(ui.Successf("Updated settings, renumbered %d documents", len(renumbered)))
	return nil
}

// applySettingKey sets one override field from its string form.
func applySettingKey(o *settings.Override, key, value string) error {
	switch key {
	case "theorem_style", "equation_style":
		style := settings.Style(value)
		if !style.Valid() {
			return fmt.Errorf("invalid style %q (want arabic, roman, or alpha)", value)
		}
		if key == "theorem_style" {
			o.TheoremStyle = &style
		} else {
			o.EquationStyle = &style
		}
	case "scope":
		scope := settings.Scope(value)
		if !scope.Valid() {
			return fmt.Errorf("invalid scope %q (want continuous, document, or section)", value)
		}
		o.Scope = &scope
	case "section_depth":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 6 {
			return fmt.Errorf("section_depth must be 1-6")
		}
		o.SectionDepth = &n
	case "prefix_headings":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("prefix_headings must be true or false")
		}
		o.PrefixHeadings = &b
	case "prefix_separator":
		if value == "" {
			return fmt.Errorf("prefix_separator must not be empty")
		}
		o.PrefixSeparator = &value
	case "start_at":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("start_at must be a non-negative integer")
		}
		o.StartAt = &n
	case "shared_streams":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("shared_streams must be true or false")
		}
		o.SharedStreams = &b
	case "tag_format":
		if value == "" {
			return fmt.Errorf("tag_format must not be empty")
		}
		o.TagFormat = &value
	case "excluded":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("excluded must be true or false")
		}
		o.Excluded = &b
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// clearSettingKey removes one override field.
func clearSettingKey(o *settings.Override, key string) error {
	switch key {
	case "theorem_style":
		o.TheoremStyle = nil
	case "equation_style":
		o.EquationStyle = nil
	case "scope":
		o.Scope = nil
	case "section_depth":
		o.SectionDepth = nil
	case "prefix_headings":
		o.PrefixHeadings = nil
	case "prefix_separator":
		o.PrefixSeparator = nil
	case "start_at":
		o.StartAt = nil
	case "shared_streams":
		o.SharedStreams = nil
	case "tag_format":
		o.TagFormat = nil
	case "excluded":
		o.Excluded = nil
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// rootNode maps the CLI spellings of the vault root to the empty node.
func rootNode(arg string) string {
	if arg == "." || arg == "/" {
		return ""
	}
	return arg
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsUnsetCmd)
	settingsCmd.AddCommand(settingsNodesCmd)
	rootCmd.AddCommand(settingsCmd)
}
