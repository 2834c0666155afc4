package inventory

import (
	"allthingslinux/atl/internal/inventory"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the full inventory as JSON",
		Long: `Print the full inventory in the JSON layout Ansible expects from a
dynamic inventory script.

Examples:
  atl inventory list
  atl inventory list --project-root ~/src/infra`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	b, err := newBuilder(cmd)
	if err != nil {
		return err
	}
	inv, err := b.Build(cmd.Context())
	if err != nil {
		return err
	}
	return inventory.Write(cmd.OutOrStdout(), inv)
}
