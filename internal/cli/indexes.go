package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the query indexes on every subject collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.shutdown(context.Background())

			subjects, err := a.store.Subjects(ctx)
			if err != nil {
				return err
			}

			for _, s := range subjects {
				if err := a.writer.CreateIndexes(ctx, s); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: indexes ready\n", s)
			}
			return nil
		},
	}
}
