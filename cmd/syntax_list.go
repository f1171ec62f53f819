package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/quill/internal/syntax"
)

var (
	listNameStyle   = lipgloss.NewStyle().Bold(true).Width(14)
	listExtStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"})
	listSourceStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"})
)

var syntaxListCmd = &cobra.Command{
	Use:   "syntax:list",
	Short: "List available syntax definitions",
	Long: `List every syntax definition and where it comes from.

Definitions are YAML files read from the configured syntax directories;
they take precedence over the builtin set when they claim the same file
extension. Shadowed builtins are still listed.

Examples:
  # List all definitions
  quill syntax:list

  # List definitions from an alternate config
  quill syntax:list --config ./config.yaml`,
	RunE: runSyntaxList,
}

func init() {
	rootCmd.AddCommand(syntaxListCmd)
}

func runSyntaxList(cmd *cobra.Command, _ []string) error {
	if configErr != nil {
		return configErr
	}

	reg := syntax.NewRegistry(cfg.EffectiveSyntaxDirs())
	for _, entry := range reg.List() {
		exts := make([]string, len(entry.Def.Extensions))
		for i, ext := range entry.Def.Extensions {
			exts[i] = "." + ext
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n",
			listNameStyle.Render(entry.Def.Name),
			listExtStyle.Render(strings.Join(exts, " ")),
			listSourceStyle.Render(entry.Source))
	}
	return nil
}
