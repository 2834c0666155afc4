package logs

import (
	"fmt"
	"path/filepath"
	"time"

	"allthingslinux/atl/internal/logging"
	"allthingslinux/atl/internal/project"
	"allthingslinux/atl/internal/tui/styles"

	"github.com/spf13/cobra"
)

func CleanupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old log and report files",
		Long: `Keep the newest log files per tool and remove anything older than the
age limit, including *-report-*.txt files.

Examples:
  atl logs cleanup
  atl logs cleanup --max-files 10 --max-age 30
  atl logs cleanup --dry-run`,
		Args:         cobra.NoArgs,
		RunE:         runCleanup,
		SilenceUsage: true,
	}

	cmd.Flags().Int("max-files", logging.DefaultPolicy.MaxFiles, "Log files to keep per tool")
	cmd.Flags().Int("max-age", int(logging.DefaultPolicy.MaxAge/(24*time.Hour)), "Maximum age in days")
	cmd.Flags().Bool("dry-run", false, "Show what would be removed")

	return cmd
}

func runCleanup(cmd *cobra.Command, args []string) error {
	maxFiles, _ := cmd.Flags().GetInt("max-files")
	maxAge, _ := cmd.Flags().GetInt("max-age")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if maxFiles < 0 || maxAge < 0 {
		return fmt.Errorf("--max-files and --max-age must not be negative")
	}

	rootFlag, _ := cmd.Flags().GetString("project-root")
	root, err := project.ResolveRoot(rootFlag)
	if err != nil {
		return err
	}

	dir := project.LogDir(root)
	cleaner := logging.NewCleaner(dir)
	policy := logging.Policy{MaxFiles: maxFiles, MaxAge: time.Duration(maxAge) * 24 * time.Hour}

	out := cmd.OutOrStdout()
	if dryRun {
		planned, err := cleaner.Plan(policy)
		if err != nil {
			return err
		}
		if len(planned) == 0 {
			fmt.Fprintln(out, "Nothing to clean up.")
			return nil
		}
		fmt.Fprintf(out, "Would remove %d file(s) from %s:\n", len(planned), dir)
		for _, path := range planned {
			fmt.Fprintf(out, "  %s\n", filepath.Base(path))
		}
		return nil
	}

	removed, err := cleaner.Cleanup(policy)
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		fmt.Fprintln(out, "Nothing to clean up.")
		return nil
	}
	for _, path := range removed {
		fmt.Fprintf(out, "  %s\n", filepath.Base(path))
	}
	fmt.Fprintln(out, styles.SuccessText.Render(fmt.Sprintf("Removed %d file(s) from %s", len(removed), dir)))
	return nil
}
