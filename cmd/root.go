package cmd

import (
	"os"

	"allthingslinux/atl/cmd/commands/audit"
	"allthingslinux/atl/cmd/commands/auth"
	cfgcmd "allthingslinux/atl/cmd/commands/config"
	"allthingslinux/atl/cmd/commands/domains"
	"allthingslinux/atl/cmd/commands/infra"
	"allthingslinux/atl/cmd/commands/inventory"
	"allthingslinux/atl/cmd/commands/logs"
	"allthingslinux/atl/cmd/commands/status"
	"allthingslinux/atl/internal/project"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "atl",
		Version: version,
		Short:   "All Things Linux infrastructure CLI",
		Long: `atl manages the All Things Linux infrastructure: Terraform provisioning,
Ansible configuration, and the dynamic inventory that connects them.

The project root (holding configs/, terraform/ and ansible/) is taken from
--project-root, then $` + project.RootEnv + `, then "atl config set project-root",
then the current directory.

Quick start:
  atl status                        # Check required tools
  atl auth login hetzner            # Store your API token
  atl domains show                  # Review declared domains
  atl plan                          # Plan infrastructure changes
  atl apply -y                      # Apply changes with auto-approve
  atl inventory drift               # Compare inventory with live servers`,
	}

	cmd.PersistentFlags().String("project-root", "", "Infrastructure repository root")
	cmd.PersistentFlags().StringP("env", "e", "", "Target environment (default: default-environment setting, then "+project.DefaultEnvironment+")")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	cmd.AddCommand(infra.NewCommand())
	cmd.AddCommand(inventory.NewCommand())
	cmd.AddCommand(domains.NewCommand())
	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(audit.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())
	cmd.AddCommand(logs.NewCommand())
	cmd.AddCommand(status.NewCommand())

	// Shortcuts for the most common infra commands.
	cmd.AddCommand(infra.PlanCommand())
	cmd.AddCommand(infra.ApplyCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	var root = rootCmd()
	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
