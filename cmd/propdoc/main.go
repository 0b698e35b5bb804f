// Command propdoc extracts widget property metadata into a JSON catalog and
// serves it to agents over MCP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "propdoc",
		Short:        "Widget property metadata for documentation and agents",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", defaultProjectConfig, "Project config file")
	root.PersistentFlags().String("env-file", ".env", "Dotenv file with PROPDOC_* settings")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default info)")
	root.PersistentFlags().String("log-format", "", "Log format: text or json (default text)")

	root.AddCommand(
		generateCmd(),
		watchCmd(),
		serveCmd(),
		inspectCmd(),
		setupCmd(),
		versionCmd(),
	)
	return root
}

// versionCmd returns the version command
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "propdoc %s\n", version)
		},
	}
}
