package inventory

import (
	"allthingslinux/atl/internal/inventory"
	"allthingslinux/atl/internal/logging"
	"allthingslinux/atl/internal/project"
	"allthingslinux/atl/internal/runner"

	"github.com/spf13/cobra"
)

// NewCommand returns the "inventory" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Build and inspect the Ansible inventory",
		Long: `Build the Ansible inventory from configs/domains.yml, merged with live
Terraform outputs or running Vagrant machines when available.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(HostCommand())
	cmd.AddCommand(DriftCommand())

	return cmd
}

// newBuilder resolves the project root from --project-root and returns a
// builder logging to the command's stderr.
func newBuilder(cmd *cobra.Command) (*inventory.Builder, error) {
	rootFlag, _ := cmd.Flags().GetString("project-root")
	verbose, _ := cmd.Flags().GetBool("verbose")

	root, err := project.ResolveRoot(rootFlag)
	if err != nil {
		return nil, err
	}
	log := logging.NewConsole(cmd.ErrOrStderr(), verbose)
	return project.NewBuilder(root, runner.New(), log)
}
