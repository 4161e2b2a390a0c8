package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kmf-ai/server/internal/functions"
	"github.com/kmf-ai/server/internal/repository"
)

func newToolsCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the query tools offered to the model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := functions.NewExamRegistry(repository.NewMemoryQuestionRepository(0), functions.DefaultLimits())
			if err != nil {
				return err
			}
			return printTools(cmd.OutOrStdout(), registry, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print each tool's parameter schema")
	return cmd
}

func printTools(w io.Writer, registry *functions.Registry, verbose bool) error {
	for _, spec := range registry.Specs() {
		if _, err := fmt.Fprintf(w, "%-28s %s\n", spec.Name, spec.Description); err != nil {
			return err
		}
		if !verbose {
			continue
		}

		schema, err := json.MarshalIndent(spec.Parameters, "    ", "  ")
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "    %s\n", schema); err != nil {
			return err
		}
	}
	return nil
}
