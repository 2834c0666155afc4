package infra

import (
	"errors"
	"fmt"

	"allthingslinux/atl/internal/deploy"
	"allthingslinux/atl/internal/tui"

	"github.com/spf13/cobra"
)

// Overridable in tests.
var confirmDestroy = tui.ConfirmDestroy

func DestroyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy infrastructure (use with caution)",
		Long: `Run "terraform destroy" for the environment.

Asks for confirmation unless --auto-approve is given. Without a terminal,
--auto-approve is required.

Examples:
  atl infra destroy --env staging
  atl infra destroy --env staging -y`,
		Args:         cobra.NoArgs,
		RunE:         runDestroy,
		SilenceUsage: true,
	}

	cmd.Flags().BoolP("auto-approve", "y", false, "Skip confirmation prompts")

	return cmd
}

func runDestroy(cmd *cobra.Command, args []string) error {
	autoApprove, _ := cmd.Flags().GetBool("auto-approve")

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	s.log.Warnw("this will destroy infrastructure", "environment", s.env)

	if !autoApprove {
		if !isTerminal() {
			return fmt.Errorf("refusing to destroy %q without --auto-approve in a non-interactive session", s.env)
		}
		if err := confirmDestroy(s.env); err != nil {
			if errors.Is(err, tui.ErrAborted) {
				s.log.Info("destruction cancelled")
				return nil
			}
			return err
		}
	}

	if err := s.manager.Preflight(); err != nil {
		return failed(s.log, "preflight", err)
	}
	if err := s.manager.CheckCredentials(); err != nil {
		return failed(s.log, "credential check", err)
	}

	if err := s.manager.Terraform(s.context(cmd.Context()), deploy.ActionDestroy, s.env, autoApprove); err != nil {
		return failed(s.log, "destruction", err)
	}

	s.log.Info("infrastructure destroyed successfully")
	return nil
}
