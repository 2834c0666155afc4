package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"allthingslinux/atl/internal/auditlog"

	"github.com/spf13/cobra"
)

// ListCommand returns the "audit list" command.
func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Long: `List recent Terraform and Ansible runs, newest first.

Examples:
  atl audit list
  atl audit list --limit 50 --failed
  atl audit list --environment production --since 7d
  atl audit list --command "terraform apply" -o json`,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 25, "Number of entries to display")
	cmd.Flags().String("command", "", "Only runs of this command (e.g. \"terraform apply\")")
	cmd.Flags().String("environment", "", "Only runs against this environment")
	cmd.Flags().Bool("failed", false, "Only failed runs")
	cmd.Flags().String("since", "", "Only runs newer than this duration (e.g. 7d, 12h)")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	if output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	repo, err := auditlog.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	entries, err := repo.List(filter)
	if err != nil {
		return err
	}

	if output == "json" {
		if entries == nil {
			entries = []auditlog.AuditEntry{}
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No audit entries found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCOMMAND\tENV\tOUTCOME\tEXIT\tDURATION\tDETAIL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			e.Timestamp.Local().Format(time.DateTime),
			e.Command,
			orDash(e.Environment),
			e.Outcome,
			e.ExitCode,
			formatDuration(e.DurationMs),
			orDash(firstLine(e.Detail)),
		)
	}
	return w.Flush()
}

func filterFromFlags(cmd *cobra.Command) (auditlog.Filter, error) {
	var f auditlog.Filter
	f.Limit, _ = cmd.Flags().GetInt("limit")
	if f.Limit <= 0 {
		return f, fmt.Errorf("limit must be greater than 0")
	}
	f.Command, _ = cmd.Flags().GetString("command")
	f.Environment, _ = cmd.Flags().GetString("environment")
	f.FailedOnly, _ = cmd.Flags().GetBool("failed")

	if since, _ := cmd.Flags().GetString("since"); strings.TrimSpace(since) != "" {
		d, err := parseDuration(strings.TrimSpace(since))
		if err != nil {
			return f, fmt.Errorf("--since: %w", err)
		}
		f.Since = time.Now().Add(-d)
	}
	return f, nil
}

// formatDuration renders run durations the way a human reads them: 850ms,
// 12.4s, 3m20s, 1h05m.
func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", ms)
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
