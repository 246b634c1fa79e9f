package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the registry command tree.
func NewRootCmd(version string) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:     "registry",
		Short:   "Ecosystem project registry tooling",
		Version: version,
		Long: `registry maintains the ecosystem project dataset:
- validate the dataset before publication
- collect auto-detected fields for one repository
- refresh every project in the dataset from GitHub
- serve read-only JSON mirrors of a validated dataset`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default $REGISTRY_CONFIG)")

	env := &runtime{configPath: &configPath}
	root.AddCommand(ValidateCmd(env))
	root.AddCommand(CollectCmd(env))
	root.AddCommand(RefreshCmd(env))
	root.AddCommand(ServeCmd(env))
	return root
}
