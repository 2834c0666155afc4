package domains

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"allthingslinux/atl/internal/declaration"
	"allthingslinux/atl/internal/tui/styles"

	"github.com/spf13/cobra"
)

func ShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List enabled and disabled domains",
		Long: `List the enabled domains with their services, followed by the domains
that are disabled or hosted externally.

Example:
  atl domains show`,
		Args:         cobra.NoArgs,
		RunE:         runShow,
		SilenceUsage: true,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	path, err := declarationPath(cmd)
	if err != nil {
		return err
	}
	cfg, err := declaration.Load(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	fmt.Fprintln(out, styles.Section("Enabled domains"))
	enabled := cfg.EnabledDomains()
	if len(enabled) == 0 {
		fmt.Fprintln(out, styles.MutedText.Render("none"))
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, d := range enabled {
			services := "none"
			if s := d.Services(); len(s) > 0 {
				services = strings.Join(s, ",")
			}
			fmt.Fprintf(w, "%s\t%s [%s]\t%s\n", d.Name, d.Domain(), services, styles.StatusIndicator("enabled"))
		}
		w.Flush()
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, styles.Section("Disabled domains"))
	disabled := cfg.DisabledDomains()
	if len(disabled) == 0 {
		fmt.Fprintln(out, styles.MutedText.Render("none"))
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, d := range disabled {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, d.Domain(), styles.StatusIndicator(d.DisabledReason()))
	}
	return w.Flush()
}
