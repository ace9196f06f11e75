package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "loom",
		Short: "Server-driven reactive HTML rendering",
		Long: `Loom renders HTML templates with reactive interpolations and
serves them over live WebSocket sessions.

  • Tagged-template fragments with reactive cells and collections
  • Conditional directives (w-if, w-elif, w-else, w-or)
  • Keyed list reconciliation with windowing and debounce
  • Live sessions with patch push and hot reload`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		renderCmd(),
		initCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
