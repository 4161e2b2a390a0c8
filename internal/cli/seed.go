package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kmf-ai/server/internal/model"
	"github.com/kmf-ai/server/internal/repository"
)

func newSeedCmd() *cobra.Command {
	var subject, file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Bulk insert questions from a JSON file",
		Example: `  kmf seed --subject mathematics --file questions.json
  kmf seed --file all_subjects.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.shutdown(context.Background())

			questions, err := repository.ReadQuestions(file)
			if err != nil {
				return err
			}

			counts, err := seed(ctx, a.writer, subject, questions)
			for name, n := range counts {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: inserted %d questions\n", name, n)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "subject collection to insert into (defaults to each question's subject)")
	cmd.Flags().StringVar(&file, "file", "", "JSON array of questions")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// seed groups questions by subject, or puts them all under subject when
// given, and inserts each group.
func seed(ctx context.Context, writer repository.QuestionWriter, subject string, questions []model.Question) (map[string]int, error) {
	groups := make(map[string][]model.Question)
	for _, q := range questions {
		name := subject
		if name == "" {
			name = q.Subject
		}
		if name == "" {
			return nil, fmt.Errorf("question %q has no subject; pass --subject", q.ID)
		}
		name = model.CollectionName(name)
		groups[name] = append(groups[name], q)
	}

	counts := make(map[string]int, len(groups))
	for name, group := range groups {
		n, err := writer.InsertMany(ctx, name, group)
		counts[name] = n
		if err != nil {
			return counts, fmt.Errorf("seed %s: %w", name, err)
		}
	}
	return counts, nil
}
