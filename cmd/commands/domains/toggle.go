package domains

import (
	"fmt"

	"allthingslinux/atl/internal/declaration"
	"allthingslinux/atl/internal/tui/styles"

	"github.com/spf13/cobra"
)

func EnableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <name>",
		Short: "Enable a domain",
		Long: `Set enabled: true on a domain in configs/domains.yml.

Example:
  atl domains enable atl_dev`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setEnabled(cmd, args[0], true)
		},
		SilenceUsage: true,
	}
}

func DisableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <name>",
		Short: "Disable a domain",
		Long: `Set enabled: false on a domain in configs/domains.yml.

Example:
  atl domains disable atl_dev`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setEnabled(cmd, args[0], false)
		},
		SilenceUsage: true,
	}
}

func setEnabled(cmd *cobra.Command, name string, enabled bool) error {
	path, err := declarationPath(cmd)
	if err != nil {
		return err
	}
	if err := declaration.SetEnabled(path, name, enabled); err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Fprintln(cmd.OutOrStdout(), styles.SuccessText.Render(fmt.Sprintf("Domain %s %s", name, state)))
	return nil
}
