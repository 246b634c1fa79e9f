package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ecoregistry/internal/collection/refresh"
)

// RefreshCmd returns the refresh command.
func RefreshCmd(rt *runtime) *cobra.Command {
	var (
		datasetPath string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh auto-detected fields for every project",
		Long: `Collect fields for every project with a repository URL, merge them into the
dataset, rebuild confidence maps and save the dataset if it still validates.

Verified and self-reported values are never replaced by detected ones.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := rt.loadConfig()
			if err != nil {
				return err
			}
			if concurrency <= 0 {
				concurrency = cfg.Refresh.Concurrency
			}

			st, closeStore, err := rt.openStore(ctx, datasetPath)
			if err != nil {
				return err
			}
			defer closeStore()

			orch, closeClient, err := rt.newOrchestrator(ctx)
			if err != nil {
				return err
			}
			defer closeClient()

			svc, err := refresh.New(orch, st,
				refresh.WithConcurrency(concurrency),
				refresh.WithLogger(rt.log()),
				refresh.WithMetrics(rt.collectionMetrics()),
			)
			if err != nil {
				return err
			}

			summary, err := svc.Run(ctx)
			if summary != nil {
				printRefreshSummary(cmd.OutOrStdout(), summary)
			}
			var verr *refresh.ValidationError
			if errors.As(err, &verr) {
				printErrors(cmd.ErrOrStderr(), verr.Errors)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "dataset file (default from config)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "projects refreshed in parallel (default from config)")
	return cmd
}

func printRefreshSummary(w io.Writer, s *refresh.Summary) {
	fmt.Fprintf(w, "Refresh %s: %d projects in %s\n", s.RunID, len(s.Projects), s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	for _, outcome := range []string{
		refresh.OutcomeUpdated,
		refresh.OutcomeUnchanged,
		refresh.OutcomeSkipped,
		refresh.OutcomeNotFound,
		refresh.OutcomeFailed,
	} {
		fmt.Fprintf(w, "  %-10s %d\n", outcome, s.Count(outcome))
	}
	yellow := color.New(color.FgYellow)
	for _, p := range s.Projects {
		if p.Outcome == refresh.OutcomeFailed {
			_, _ = yellow.Fprintf(w, "  ! %s: %s\n", p.ProjectID, p.Error)
		}
	}
}
