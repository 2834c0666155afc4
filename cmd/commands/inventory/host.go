package inventory

import (
	"allthingslinux/atl/internal/inventory"

	"github.com/spf13/cobra"
)

func HostCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "host <hostname>",
		Short: "Print the variables of one host as JSON",
		Long: `Print the variables of one host. Unknown hosts print an empty object.

Example:
  atl inventory host atl.dev`,
		Args:         cobra.ExactArgs(1),
		RunE:         runHost,
		SilenceUsage: true,
	}
}

func runHost(cmd *cobra.Command, args []string) error {
	b, err := newBuilder(cmd)
	if err != nil {
		return err
	}
	hv, err := b.HostVars(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return inventory.Write(cmd.OutOrStdout(), hv)
}
