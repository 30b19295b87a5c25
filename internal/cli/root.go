// Package cli holds the mimic command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Running mimic without a subcommand
// starts the server.
func NewRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:   "mimic",
		Short: "mimic is a programmable HTTP stub server",
		Long: `mimic serves virtual services: canned HTTP responses registered at runtime
by test suites through the admin API, then invoked by the system under test.

Configuration comes from MIMIC_* environment variables and an optional YAML
file named by MIMIC_CONFIG_FILE or --config.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newCheckCmd(), newVersionCmd())
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
