package audit

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"allthingslinux/atl/internal/auditlog"

	"github.com/spf13/cobra"
)

// PruneCommand returns the "audit prune" command.
func PruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete run history older than a duration",
		Long: `Delete run history older than a duration. Log files referenced by
the removed entries are left alone; see "atl logs cleanup".

Examples:
  atl audit prune --older-than 30d
  atl audit prune --older-than 72h`,
		RunE:         runPrune,
		SilenceUsage: true,
	}

	cmd.Flags().String("older-than", "", "Remove entries older than this duration (e.g. 30d, 72h)")
	_ = cmd.MarkFlagRequired("older-than")

	return cmd
}

func runPrune(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("older-than")
	olderThan, err := parseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("--older-than: %w", err)
	}

	repo, err := auditlog.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	removed, err := repo.Prune(olderThan)
	if err != nil {
		return err
	}

	noun := "entries"
	if removed == 1 {
		noun = "entry"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d audit %s.\n", removed, noun)
	return nil
}

// parseDuration accepts Go durations plus a whole-day "Nd" form. Negative
// values are rejected.
func parseDuration(input string) (time.Duration, error) {
	if input == "" {
		return 0, fmt.Errorf("duration is required")
	}

	var d time.Duration
	if days, ok := strings.CutSuffix(input, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", input)
		}
		d = time.Duration(n) * 24 * time.Hour
	} else {
		var err error
		if d, err = time.ParseDuration(input); err != nil {
			return 0, fmt.Errorf("invalid duration %q", input)
		}
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative, got %q", input)
	}
	return d, nil
}
