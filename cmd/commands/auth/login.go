package auth

import (
	"fmt"
	"os"
	"strings"

	"allthingslinux/atl/internal/services/auth"

	"golang.org/x/term"

	"github.com/spf13/cobra"
)

func LoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <provider>",
		Short: "Store an API token for a provider",
		Long: fmt.Sprintf(`Store an API token for a provider using the local keychain.

Providers: %s

Example:
  atl auth login hetzner`, strings.Join(auth.Providers(), ", ")),
		Args:         cobra.ExactArgs(1),
		RunE:         runLogin,
		SilenceUsage: true,
	}

	cmd.Flags().String("token", "", "API token (optional, overrides prompt)")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	provider := auth.NormalizeProvider(args[0])
	if _, err := auth.EnvVar(provider); err != nil {
		return err
	}

	token, _ := cmd.Flags().GetString("token")
	token = strings.TrimSpace(token)
	if token == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("no terminal to prompt for a token; pass --token")
		}
		fmt.Fprint(cmd.OutOrStdout(), "Enter API token: ")
		bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		token = strings.TrimSpace(string(bytes))
	}

	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	if err := newStore().SetToken(provider, token); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved token for provider %s\n", provider)
	return nil
}
