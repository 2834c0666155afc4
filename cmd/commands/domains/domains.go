package domains

import (
	"allthingslinux/atl/internal/project"

	"github.com/spf13/cobra"
)

// NewCommand returns the "domains" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domains",
		Short: "Show and toggle declared domains",
		Long: `Show and toggle the domains declared in configs/domains.yml.

Enabling or disabling a domain only rewrites its "enabled" value; comments
and key order in the file are preserved.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(ShowCommand())
	cmd.AddCommand(EnableCommand())
	cmd.AddCommand(DisableCommand())

	return cmd
}

func declarationPath(cmd *cobra.Command) (string, error) {
	rootFlag, _ := cmd.Flags().GetString("project-root")
	root, err := project.ResolveRoot(rootFlag)
	if err != nil {
		return "", err
	}
	return project.DeclarationPath(root), nil
}
