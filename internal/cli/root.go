package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the kmf command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kmf",
		Short:         "KMF.AI - KCSE past paper assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newIndexesCmd())
	root.AddCommand(newToolsCmd())

	return root
}

// Execute runs the command line. With no subcommand the server starts.
func Execute() {
	root := NewRootCmd()
	if len(os.Args) == 1 {
		root.SetArgs([]string{"serve"})
	}

	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
