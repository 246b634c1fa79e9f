package cli

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ecoregistry/internal/registry/models"
	"ecoregistry/internal/registry/store"
)

// ValidateCmd returns the validate command.
func ValidateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dataset.json]",
		Short: "Validate the project dataset before publication",
		Long: `Validate the dataset against the record schema and the cross-record checks
(unique ids, partnership references, confidence map consistency).

With a file argument that file is validated; otherwise the configured store is.
Exits non-zero when any error is found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				st         datasetStore
				closeStore = func() {}
			)
			if len(args) == 1 {
				st = store.NewFileStore(args[0])
			} else {
				var err error
				st, closeStore, err = rt.openStore(ctx, "")
				if err != nil {
					return err
				}
			}
			defer closeStore()

			res, records, err := validateStored(ctx, st)
			if err != nil {
				return err
			}
			if !res.Valid {
				printErrors(cmd.ErrOrStderr(), res.Errors)
				return fmt.Errorf("dataset invalid: %d error(s)", len(res.Errors))
			}
			printSummary(cmd.OutOrStdout(), models.Summarize(records, time.Now()))
			return nil
		},
	}
}

func printErrors(w io.Writer, errs []string) {
	red := color.New(color.FgRed)
	for _, e := range errs {
		_, _ = red.Fprintf(w, "  ✗ %s\n", e)
	}
}

func printSummary(w io.Writer, s models.Summary) {
	_, _ = color.New(color.FgGreen).Fprintf(w, "%d projects valid\n", s.TotalProjects)

	statuses := make([]string, 0, len(s.ByStatus))
	for st := range s.ByStatus {
		statuses = append(statuses, string(st))
	}
	sort.Strings(statuses)
	for _, st := range statuses {
		fmt.Fprintf(w, "  %-12s %d\n", st, s.ByStatus[models.Status(st)])
	}
	fmt.Fprintf(w, "  open source: %d, claimed: %d, featured: %d\n", s.OpenSource, s.Claimed, s.Featured)
}
