// Package cmd defines the CLI commands for the scopecrawl executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scopecrawl",
		Short: "A depth-bounded, scope-restricted web crawler.",
		Long: `scopecrawl discovers pages reachable from a seed URL within that URL's
prefix scope, extracts a title/description/raw-markup tuple per page and
persists results in Postgres. A durable frontier table tracks discovered
and visited URLs, so re-running against the same database never refetches
a page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	cmd.AddCommand(newCrawlCmd())

	return cmd
}

// Execute is the main entry point. Startup failures exit non-zero.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
