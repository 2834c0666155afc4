package infra

import (
	"allthingslinux/atl/internal/deploy"

	"github.com/spf13/cobra"
)

func PlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan infrastructure changes",
		Long: `Run "terraform plan" for the environment, then Ansible in check mode
(--check --diff). Nothing is changed.

Examples:
  atl infra plan
  atl infra plan --env staging --target domains
  atl infra plan --target domain --domain-name atl.dev --ansible-only`,
		Args:         cobra.NoArgs,
		RunE:         runPlan,
		SilenceUsage: true,
	}

	addTargetFlags(cmd)

	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	flags, err := readTargetFlags(cmd)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.manager.Preflight(); err != nil {
		return failed(s.log, "preflight", err)
	}

	s.log.Infow("planning deployment", "environment", s.env, "target", flags.target)
	ctx := s.context(cmd.Context())

	if !flags.ansibleOnly {
		if err := s.manager.Terraform(ctx, deploy.ActionPlan, s.env, false); err != nil {
			return failed(s.log, "planning", err)
		}
	}
	if !flags.terraformOnly {
		opts := deploy.AnsibleOpts{Target: flags.target, Domain: flags.domain, DryRun: true}
		opts.Verbose, _ = cmd.Flags().GetBool("verbose")
		if err := s.manager.Ansible(ctx, opts); err != nil {
			return failed(s.log, "planning", err)
		}
	}

	s.log.Info("planning completed successfully")
	return nil
}
