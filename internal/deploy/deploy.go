// Package deploy drives Terraform and Ansible runs against the
// infrastructure repository.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"allthingslinux/atl/internal/auditlog"
	"allthingslinux/atl/internal/declaration"
	"allthingslinux/atl/internal/runner"
	"allthingslinux/atl/internal/services/auth"

	"go.uber.org/zap"
)

// Layout of the infrastructure repository, relative to its root.
const (
	TerraformDir         = "terraform"
	AnsibleDir           = "ansible"
	DefaultInventoryPath = "ansible/inventories/dynamic"
)

// ProjectRootEnv tells the inventory script where the repository root is.
// ansible-playbook runs the script from the ansible directory, so the root
// cannot be taken from its working directory.
const ProjectRootEnv = "ATL_PROJECT_ROOT"

// Terraform actions.
const (
	ActionPlan    = "plan"
	ActionApply   = "apply"
	ActionDestroy = "destroy"
)

// Ansible targets.
const (
	TargetAll            = "all"
	TargetDomains        = "domains"
	TargetDomain         = "domain"
	TargetInfrastructure = "infrastructure"
)

const sitePlaybook = "playbooks/site.yml"

var playbooks = map[string]string{
	TargetAll:            sitePlaybook,
	TargetDomains:        "playbooks/dynamic-deploy.yml",
	TargetDomain:         "playbooks/domains/generic-domain.yml",
	TargetInfrastructure: "playbooks/infrastructure/bootstrap.yml",
}

var (
	ErrPreflight          = errors.New("preflight checks failed")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrUnknownAction      = errors.New("unknown terraform action")
	ErrUnknownTarget      = errors.New("unknown ansible target")
	ErrDomainRequired     = errors.New("domain name required for domain deployment")
)

// Targets returns the Ansible targets in display order.
func Targets() []string {
	return []string{TargetAll, TargetInfrastructure, TargetDomains, TargetDomain}
}

// Manager runs deployment steps for one project root.
type Manager struct {
	root          string
	inventoryPath string
	runner        runner.Runner
	store         auth.Store
	audit         auditlog.Repository
	log           *zap.SugaredLogger
	stdout        io.Writer
	stderr        io.Writer
}

// Option configures a Manager.
type Option func(*Manager)

// WithAuthStore sets the keychain used to resolve provider tokens.
func WithAuthStore(s auth.Store) Option { return func(m *Manager) { m.store = s } }

// WithAudit records every Terraform and Ansible run in repo.
func WithAudit(repo auditlog.Repository) Option { return func(m *Manager) { m.audit = repo } }

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithOutput sets where tool output is streamed.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(m *Manager) {
		m.stdout = stdout
		m.stderr = stderr
	}
}

// WithInventory overrides the inventory passed to ansible-playbook -i.
func WithInventory(path string) Option { return func(m *Manager) { m.inventoryPath = path } }

// New returns a Manager for the repository at root.
func New(root string, r runner.Runner, opts ...Option) *Manager {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	m := &Manager{
		root:          root,
		inventoryPath: filepath.Join(root, DefaultInventoryPath),
		runner:        r,
		log:           zap.NewNop().Sugar(),
		stdout:        os.Stdout,
		stderr:        os.Stderr,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Root returns the project root.
func (m *Manager) Root() string { return m.root }

// DeclarationPath returns the domain declaration path.
func (m *Manager) DeclarationPath() string {
	return filepath.Join(m.root, declaration.DefaultRelPath)
}

// Preflight checks that the declaration exists and ansible-playbook and
// terraform are on PATH. Every problem is listed in the error.
func (m *Manager) Preflight() error {
	m.log.Info("checking prerequisites")

	var problems []string
	if _, err := os.Stat(m.DeclarationPath()); err != nil {
		problems = append(problems, fmt.Sprintf("declaration not found at %s", m.DeclarationPath()))
	}
	for _, tool := range []string{"ansible-playbook", "terraform"} {
		if _, err := m.runner.LookPath(tool); err != nil {
			problems = append(problems, tool+" not found in PATH")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrPreflight, strings.Join(problems, "; "))
	}
	m.log.Debug("prerequisites check passed")
	return nil
}

// CheckCredentials verifies that every provider token resolves from the
// environment or the keychain.
func (m *Manager) CheckCredentials() error {
	_, missing := auth.Env(m.store)
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// TerraformArgs returns the arguments of the main terraform invocation.
// -auto-approve is only added for apply and destroy.
func TerraformArgs(action, env string, autoApprove bool) ([]string, error) {
	switch action {
	case ActionPlan, ActionApply, ActionDestroy:
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownAction, action)
	}
	args := []string{action, "-var=environment=" + env}
	if autoApprove && action != ActionPlan {
		args = append(args, "-auto-approve")
	}
	return args, nil
}

// Terraform runs init, selects (or creates) the workspace for env, then runs
// action. Resolved provider tokens are added to the child environment.
func (m *Manager) Terraform(ctx context.Context, action, env string, autoApprove bool) error {
	args, err := TerraformArgs(action, env, autoApprove)
	if err != nil {
		return err
	}

	dir := filepath.Join(m.root, TerraformDir)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("terraform directory %s not found", dir)
	}

	ctx = auditlog.WithMetadata(ctx, auditlog.Metadata{Environment: env, Tool: "terraform", Target: action})
	return auditlog.Track(ctx, m.audit, "terraform "+action, args, func(ctx context.Context) error {
		m.log.Infow("running terraform", "action", action, "environment", env)
		credEnv, _ := auth.Env(m.store)

		if err := m.stream(ctx, runner.Command{Name: "terraform", Args: []string{"init"}, Dir: dir, Env: credEnv}); err != nil {
			return fmt.Errorf("terraform init: %w", err)
		}

		if _, err := m.runner.Run(ctx, runner.Command{Name: "terraform", Args: []string{"workspace", "select", env}, Dir: dir, Env: credEnv}); err != nil {
			m.log.Debugw("workspace select failed, creating", "environment", env, "error", err)
			if err := m.stream(ctx, runner.Command{Name: "terraform", Args: []string{"workspace", "new", env}, Dir: dir, Env: credEnv}); err != nil {
				return fmt.Errorf("terraform workspace new %s: %w", env, err)
			}
		}

		if err := m.stream(ctx, runner.Command{Name: "terraform", Args: args, Dir: dir, Env: credEnv}); err != nil {
			return fmt.Errorf("terraform %s: %w", action, err)
		}
		m.log.Infow("terraform completed", "action", action)
		return nil
	})
}

// AnsibleOpts selects what ansible-playbook runs.
type AnsibleOpts struct {
	Target  string
	Domain  string
	Verbose bool
	DryRun  bool
}

// AnsibleArgs returns the ansible-playbook arguments for opts.
func AnsibleArgs(opts AnsibleOpts, inventory string) ([]string, error) {
	playbook, ok := playbooks[opts.Target]
	if !ok {
		return nil, fmt.Errorf("%w %q (valid: %s)", ErrUnknownTarget, opts.Target, strings.Join(Targets(), ", "))
	}
	if opts.Target == TargetDomain && opts.Domain == "" {
		return nil, ErrDomainRequired
	}

	var args []string
	if opts.Verbose {
		args = append(args, "-vvv")
	}
	if opts.DryRun {
		args = append(args, "--check", "--diff")
	}
	args = append(args, playbook, "-i", inventory)
	if opts.Target == TargetDomain {
		args = append(args, "--limit", opts.Domain, "--extra-vars", "target_domain="+opts.Domain)
	}
	return args, nil
}

// Ansible runs ansible-playbook from the ansible directory.
func (m *Manager) Ansible(ctx context.Context, opts AnsibleOpts) error {
	args, err := AnsibleArgs(opts, m.inventoryPath)
	if err != nil {
		return err
	}

	ctx = auditlog.WithMetadata(ctx, auditlog.Metadata{Tool: "ansible-playbook", Target: opts.Target})
	return auditlog.Track(ctx, m.audit, "ansible "+opts.Target, args, func(ctx context.Context) error {
		m.log.Infow("running ansible", "target", opts.Target, "domain", opts.Domain, "dry_run", opts.DryRun)
		if err := m.stream(ctx, m.ansibleCommand(args)); err != nil {
			return fmt.Errorf("ansible %s: %w", opts.Target, err)
		}
		m.log.Infow("ansible completed", "target", opts.Target)
		return nil
	})
}

// SyntaxCheck runs ansible-playbook --syntax-check on the site playbook.
func (m *Manager) SyntaxCheck(ctx context.Context) error {
	args := []string{sitePlaybook, "--syntax-check"}
	ctx = auditlog.WithMetadata(ctx, auditlog.Metadata{Tool: "ansible-playbook", Target: "syntax-check"})
	return auditlog.Track(ctx, m.audit, "ansible syntax-check", args, func(ctx context.Context) error {
		m.log.Info("running syntax check")
		if err := m.stream(ctx, m.ansibleCommand(args)); err != nil {
			return fmt.Errorf("syntax check: %w", err)
		}
		m.log.Info("syntax check passed")
		return nil
	})
}

func (m *Manager) ansibleCommand(args []string) runner.Command {
	return runner.Command{
		Name: "ansible-playbook",
		Args: args,
		Dir:  filepath.Join(m.root, AnsibleDir),
		Env:  []string{ProjectRootEnv + "=" + m.root},
	}
}

func (m *Manager) stream(ctx context.Context, cmd runner.Command) error {
	cmd.Stdout = m.stdout
	cmd.Stderr = m.stderr
	m.log.Debugw("exec", "cmd", cmd.String(), "dir", cmd.Dir)
	_, err := m.runner.Run(ctx, cmd)
	return err
}
