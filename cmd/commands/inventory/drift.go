package inventory

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"allthingslinux/atl/internal/drift"
	"allthingslinux/atl/internal/hetzner"
	"allthingslinux/atl/internal/inventory"
	"allthingslinux/atl/internal/logging"
	"allthingslinux/atl/internal/services/auth"
	"allthingslinux/atl/internal/tui/styles"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Overridable in tests.
var (
	authStore = auth.DefaultStore
	newClient = func(token string, log *zap.SugaredLogger) *hetzner.Client {
		return hetzner.New(token, log)
	}
)

func DriftCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Compare the inventory with live Hetzner Cloud servers",
		Long: `Build the inventory and list Hetzner Cloud servers side by side, then
report every hostname as ok, missing (declared but no server), untracked
(server not in the inventory) or ip-mismatch.

Requires a Hetzner token from $HCLOUD_TOKEN or "atl auth login hetzner".

Examples:
  atl inventory drift
  atl inventory drift -o json`,
		Args:         cobra.NoArgs,
		RunE:         runDrift,
		SilenceUsage: true,
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runDrift(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	token, _, err := auth.Resolve(authStore(), auth.ProviderHetzner)
	if err != nil {
		return fmt.Errorf("hetzner token unavailable (set HCLOUD_TOKEN or run \"atl auth login hetzner\"): %w", err)
	}

	b, err := newBuilder(cmd)
	if err != nil {
		return err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	client := newClient(token, logging.NewConsole(cmd.ErrOrStderr(), verbose))

	var (
		inv     *inventory.Inventory
		servers []hetzner.Server
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		var err error
		inv, err = b.Build(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		servers, err = client.ListServers(ctx)
		if err != nil {
			return fmt.Errorf("failed to list servers: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	report := drift.Compare(inv, servers)

	if output == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}
	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report drift.Report) {
	out := cmd.OutOrStdout()
	if len(report.Entries) == 0 {
		fmt.Fprintln(out, "No hosts declared and no servers found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HOST\tSTATUS\tGROUP\tEXPECTED IP\tACTUAL IP")
	for _, e := range report.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Host, e.Status, dash(e.Group), dash(e.ExpectedIP), dash(e.ActualIP))
	}
	w.Flush()

	fmt.Fprintln(out)
	if report.Clean() {
		fmt.Fprintln(out, styles.SuccessText.Render("No drift detected."))
		return
	}
	summary := fmt.Sprintf("Drift: %d missing, %d untracked, %d ip-mismatch",
		report.Count(drift.StatusMissing), report.Count(drift.StatusUntracked), report.Count(drift.StatusIPMismatch))
	style := styles.WarningText
	if report.Count(drift.StatusMissing) > 0 {
		style = styles.ErrorText
	}
	fmt.Fprintln(out, style.Render(summary))
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
