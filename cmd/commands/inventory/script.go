package inventory

import (
	"fmt"
	"os"

	"allthingslinux/atl/internal/inventory"
	"allthingslinux/atl/internal/project"

	"github.com/spf13/cobra"
)

// ScriptCommand returns the root command of atl-inventory, the executable
// Ansible runs as a dynamic inventory script.
func ScriptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "atl-inventory",
		Short: "Ansible dynamic inventory for All Things Linux",
		Long: fmt.Sprintf(`Ansible dynamic inventory for All Things Linux.

Reads configs/domains.yml under the project root and merges live Terraform
outputs or running Vagrant machines when available.

The project root is taken from --project-root, then $%s, then the
project-root setting, then the current directory.

Examples:
  atl-inventory --list
  atl-inventory --host atl.dev`, project.RootEnv),
		Args:         cobra.NoArgs,
		RunE:         runScript,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("list", false, "Print the full inventory")
	cmd.Flags().String("host", "", "Print the variables of one host")
	cmd.Flags().String("project-root", "", "Infrastructure repository root")
	cmd.Flags().BoolP("verbose", "v", os.Getenv("ATL_INVENTORY_DEBUG") != "", "Log overlay diagnostics to stderr")
	cmd.MarkFlagsMutuallyExclusive("list", "host")

	return cmd
}

func runScript(cmd *cobra.Command, args []string) error {
	list, _ := cmd.Flags().GetBool("list")
	host, _ := cmd.Flags().GetString("host")

	switch {
	case list:
		return runList(cmd, nil)
	case cmd.Flags().Changed("host"):
		b, err := newBuilder(cmd)
		if err != nil {
			return err
		}
		hv, err := b.HostVars(cmd.Context(), host)
		if err != nil {
			return err
		}
		return inventory.Write(cmd.OutOrStdout(), hv)
	default:
		return cmd.Help()
	}
}
