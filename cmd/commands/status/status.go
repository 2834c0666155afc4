package status

import (
	"fmt"
	"text/tabwriter"

	"allthingslinux/atl/internal/runner"
	"allthingslinux/atl/internal/tui/styles"

	"github.com/spf13/cobra"
)

// Overridable in tests.
var newRunner = func() runner.Runner { return runner.New() }

// tool is one external binary atl depends on.
type tool struct {
	Name   string
	Binary string
}

var tools = []tool{
	{"Terraform", "terraform"},
	{"Ansible", "ansible"},
	{"Ansible Playbook", "ansible-playbook"},
	{"Vagrant", "vagrant"},
	{"Docker", "docker"},
}

// NewCommand returns the "status" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show availability of the external tools atl runs",
		Long: `Check that terraform, ansible, ansible-playbook, vagrant and docker are on
PATH.

Example:
  atl status`,
		Args:         cobra.NoArgs,
		RunE:         runStatus,
		SilenceUsage: true,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	r := newRunner()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, styles.Section("Tool availability"))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, t := range tools {
		path, err := r.LookPath(t.Binary)
		if err != nil {
			fmt.Fprintf(w, "%s\t%s\t-\n", t.Name, styles.StatusIndicator("not found"))
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, styles.StatusIndicator("available"), path)
	}
	return w.Flush()
}
