package auth

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"allthingslinux/atl/internal/services/auth"
	"allthingslinux/atl/internal/tui/styles"

	"github.com/spf13/cobra"
)

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show where each provider token comes from",
		Long: `Show whether each provider token resolves, and from where.

Example:
  atl auth status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := newStore()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, provider := range auth.Providers() {
				envVar, _ := auth.EnvVar(provider)
				_, source, err := auth.Resolve(store, provider)
				switch {
				case err == nil:
					fmt.Fprintf(w, "%s\t%s\tfrom %s\n", provider, styles.StatusIndicator("ok"), source)
				case errors.Is(err, auth.ErrTokenNotFound):
					fmt.Fprintf(w, "%s\t%s\tset %s or run \"atl auth login %s\"\n", provider, styles.StatusIndicator("missing"), envVar, provider)
				default:
					fmt.Fprintf(w, "%s\t%s\t%v\n", provider, styles.StatusIndicator("error"), err)
				}
			}
			return w.Flush()
		},
		SilenceUsage: true,
	}

	return cmd
}
