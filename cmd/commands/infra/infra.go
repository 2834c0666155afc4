package infra

import (
	"context"
	"fmt"
	"os"
	"strings"

	"allthingslinux/atl/cmd/commands/domains"
	"allthingslinux/atl/internal/auditlog"
	"allthingslinux/atl/internal/deploy"
	"allthingslinux/atl/internal/logging"
	"allthingslinux/atl/internal/project"
	"allthingslinux/atl/internal/runner"
	"allthingslinux/atl/internal/services/auth"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// Overridable in tests.
var (
	newRunner  = func() runner.Runner { return runner.New() }
	authStore  = auth.DefaultStore
	isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

// NewCommand returns the "infra" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infra",
		Short: "Provision and configure infrastructure (Terraform + Ansible)",
		Long: `Provision infrastructure with Terraform and configure it with Ansible.

Every run writes a log file under <project-root>/logs and is recorded in the
local audit history (see "atl audit list").`,
		SilenceUsage: true,
	}

	cmd.AddCommand(PlanCommand())
	cmd.AddCommand(ApplyCommand())
	cmd.AddCommand(DestroyCommand())
	cmd.AddCommand(CheckCommand())

	show := domains.ShowCommand()
	show.Use = "config"
	show.Short = "Show the current domain configuration"
	cmd.AddCommand(show)
	cmd.AddCommand(domains.EnableCommand())
	cmd.AddCommand(domains.DisableCommand())

	return cmd
}

// session is the state shared by one deployment command run.
type session struct {
	env     string
	manager *deploy.Manager
	log     *zap.SugaredLogger
	logs    *logging.Session
	audit   *auditlog.SQLiteRepository
}

// openSession resolves the project, opens the run's log file and audit
// repository, and builds the deploy manager.
func openSession(cmd *cobra.Command) (*session, error) {
	rootFlag, _ := cmd.Flags().GetString("project-root")
	envFlag, _ := cmd.Flags().GetString("env")
	verbose, _ := cmd.Flags().GetBool("verbose")

	root, err := project.ResolveRoot(rootFlag)
	if err != nil {
		return nil, err
	}
	env, err := project.ResolveEnvironment(envFlag)
	if err != nil {
		return nil, err
	}

	logs, err := logging.Open(logging.SessionOptions{
		Dir:     project.LogDir(root),
		Tool:    "deploy",
		Console: cmd.ErrOrStderr(),
		Verbose: verbose,
		Cleanup: true,
	})
	if err != nil {
		return nil, err
	}

	s := &session{env: env, log: logs.Log, logs: logs}
	opts := []deploy.Option{
		deploy.WithAuthStore(authStore()),
		deploy.WithLogger(logs.Log),
		deploy.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
	}
	if repo, err := auditlog.Open(); err != nil {
		logs.Log.Warnw("audit history unavailable", "error", err)
	} else {
		s.audit = repo
		opts = append(opts, deploy.WithAudit(repo))
	}
	s.manager = deploy.New(root, newRunner(), opts...)

	logs.Log.Infow("All Things Linux infrastructure deployment", "project_root", root, "environment", env)
	return s, nil
}

// context returns ctx carrying the session's audit metadata.
func (s *session) context(ctx context.Context) context.Context {
	return auditlog.WithMetadata(ctx, auditlog.Metadata{Environment: s.env, LogFile: s.logs.Path})
}

func (s *session) Close() {
	if s.audit != nil {
		_ = s.audit.Close()
	}
	_ = s.logs.Close()
}

// targetFlags are shared by plan and apply.
type targetFlags struct {
	target        string
	domain        string
	ansibleOnly   bool
	terraformOnly bool
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("target", "t", deploy.TargetAll, "Deployment target: "+strings.Join(deploy.Targets(), ", "))
	cmd.Flags().String("domain-name", "", "Domain for --target domain")
	cmd.Flags().Bool("ansible-only", false, "Run only Ansible configuration")
	cmd.Flags().Bool("terraform-only", false, "Run only Terraform provisioning")
	cmd.MarkFlagsMutuallyExclusive("ansible-only", "terraform-only")
}

func readTargetFlags(cmd *cobra.Command) (targetFlags, error) {
	var f targetFlags
	f.target, _ = cmd.Flags().GetString("target")
	f.domain, _ = cmd.Flags().GetString("domain-name")
	f.ansibleOnly, _ = cmd.Flags().GetBool("ansible-only")
	f.terraformOnly, _ = cmd.Flags().GetBool("terraform-only")

	// Validate before anything runs.
	if _, err := deploy.AnsibleArgs(deploy.AnsibleOpts{Target: f.target, Domain: f.domain}, ""); err != nil {
		return f, err
	}
	return f, nil
}

func failed(log *zap.SugaredLogger, what string, err error) error {
	log.Errorw(what+" failed", "error", err)
	return fmt.Errorf("%s failed: %w", what, err)
}
