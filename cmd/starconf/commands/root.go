package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	manifestPath string
	jsonOutput   bool
	verbose      bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "starconf",
		Short: "Starconf - scripted, schema-checked configuration loading",
		Long: `Starconf loads application configuration from small Starlark scripts,
statically validated against a declared CUE schema and executed in order
against one shared mutable state object.

Features:
  - Typed schemas via CUE
  - Full scripting power (conditionals, computed values, imports)
  - Static diagnostics with exact source locations
  - Sandboxed, failure-contained script execution
  - Synchronous reloads: configuration is ready before dependents load`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&manifestPath, "config", "c", "starconf.yaml", "manifest file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(newLoadCommand())
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newSchemaCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newInitCommand())

	return rootCmd
}
