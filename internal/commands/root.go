package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/budget/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "budget",
		Short:   "Import card exports and track spending by description",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newIngestCommand())
	rootCmd.AddCommand(newNormalizeCommand())

	return rootCmd
}
