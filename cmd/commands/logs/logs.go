package logs

import (
	"github.com/spf13/cobra"
)

// NewCommand returns the "logs" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Manage run log files",
		Long: `Manage the log files written under <project-root>/logs.

Each deployment writes <tool>-YYYYMMDD_HHMMSS.log. Old files are pruned
automatically when a new one is opened.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(CleanupCommand())

	return cmd
}
