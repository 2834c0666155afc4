package infra

import (
	"allthingslinux/atl/internal/deploy"

	"github.com/spf13/cobra"
)

func ApplyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply infrastructure and configuration",
		Long: `Run "terraform apply" for the environment, then the Ansible playbook for
the target. Requires Hetzner and Cloudflare tokens from the environment
(HCLOUD_TOKEN, CLOUDFLARE_API_TOKEN) or "atl auth login".

Examples:
  atl infra apply
  atl infra apply --env production -y
  atl infra apply --target domain --domain-name atl.dev --ansible-only`,
		Args:         cobra.NoArgs,
		RunE:         runApply,
		SilenceUsage: true,
	}

	addTargetFlags(cmd)
	cmd.Flags().BoolP("auto-approve", "y", false, "Skip Terraform's interactive approval")
	cmd.Flags().BoolP("dry-run", "d", false, "Run Ansible in check mode")

	return cmd
}

func runApply(cmd *cobra.Command, args []string) error {
	flags, err := readTargetFlags(cmd)
	if err != nil {
		return err
	}
	autoApprove, _ := cmd.Flags().GetBool("auto-approve")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.manager.Preflight(); err != nil {
		return failed(s.log, "preflight", err)
	}
	if err := s.manager.CheckCredentials(); err != nil {
		return failed(s.log, "credential check", err)
	}

	s.log.Infow("applying deployment", "environment", s.env, "target", flags.target)
	ctx := s.context(cmd.Context())

	if !flags.ansibleOnly {
		if err := s.manager.Terraform(ctx, deploy.ActionApply, s.env, autoApprove); err != nil {
			return failed(s.log, "deployment", err)
		}
	}
	if !flags.terraformOnly {
		opts := deploy.AnsibleOpts{Target: flags.target, Domain: flags.domain, DryRun: dryRun}
		opts.Verbose, _ = cmd.Flags().GetBool("verbose")
		if err := s.manager.Ansible(ctx, opts); err != nil {
			return failed(s.log, "deployment", err)
		}
	}

	s.log.Info("deployment completed successfully")
	return nil
}
