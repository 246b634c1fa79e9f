package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// CollectCmd returns the collect command.
func CollectCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "collect <repository-url>",
		Short: "Collect auto-detected fields for one repository",
		Long: `Run every field collector against one GitHub repository and print the
collected fields and diagnostic notes as JSON. Nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orch, closer, err := rt.newOrchestrator(ctx)
			if err != nil {
				return err
			}
			defer closer()

			res, err := orch.Collect(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}
