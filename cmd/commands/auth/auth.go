package auth

import (
	"allthingslinux/atl/internal/services/auth"

	"github.com/spf13/cobra"
)

// Overridable in tests.
var newStore = auth.DefaultStore

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API tokens",
		Long: `Manage provider API tokens.

Tokens are stored in the local keychain. HCLOUD_TOKEN and
CLOUDFLARE_API_TOKEN take precedence when set.`,
	}

	cmd.AddCommand(LoginCommand())
	cmd.AddCommand(StatusCommand())

	return cmd
}
