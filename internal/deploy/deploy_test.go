package deploy

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"allthingslinux/atl/internal/auditlog"
	"allthingslinux/atl/internal/runner"
	"allthingslinux/atl/internal/services/auth"

	"github.com/google/go-cmp/cmp"
)

// recorder captures every command and fails those whose line matches fail.
type recorder struct {
	calls []runner.Command
	fail  map[string]int
}

func (r *recorder) runner(missing ...string) runner.Func {
	return runner.Func{
		Missing: missing,
		RunFunc: func(_ context.Context, cmd runner.Command) (*runner.Result, error) {
			r.calls = append(r.calls, cmd)
			if code, ok := r.fail[cmd.String()]; ok {
				return &runner.Result{ExitCode: code}, &runner.ExitError{Command: cmd.String(), ExitCode: code}
			}
			return &runner.Result{}, nil
		},
	}
}

func (r *recorder) lines() []string {
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.String()
	}
	return out
}

func projectRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"configs", "terraform", "ansible/inventories"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "configs", "domains.yml"), []byte("domains: {}\n"), 0o644); err != nil {
		t.Fatalf("write declaration: %v", err)
	}
	return root
}

func tempAudit(t *testing.T) *auditlog.SQLiteRepository {
	t.Helper()
	repo, err := auditlog.OpenAt(filepath.Join(t.TempDir(), "atl.db"))
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newManager(t *testing.T, root string, r runner.Runner, opts ...Option) *Manager {
	t.Helper()
	var out bytes.Buffer
	return New(root, r, append([]Option{WithOutput(&out, &out), WithAuthStore(auth.NewMockStore())}, opts...)...)
}

func TestTerraformArgs(t *testing.T) {
	tests := []struct {
		action      string
		autoApprove bool
		want        []string
	}{
		{ActionPlan, false, []string{"plan", "-var=environment=staging"}},
		{ActionPlan, true, []string{"plan", "-var=environment=staging"}},
		{ActionApply, false, []string{"apply", "-var=environment=staging"}},
		{ActionApply, true, []string{"apply", "-var=environment=staging", "-auto-approve"}},
		{ActionDestroy, true, []string{"destroy", "-var=environment=staging", "-auto-approve"}},
	}
	for _, tt := range tests {
		got, err := TerraformArgs(tt.action, "staging", tt.autoApprove)
		if err != nil {
			t.Fatalf("TerraformArgs(%s) failed: %v", tt.action, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s auto=%v mismatch (-want +got):\n%s", tt.action, tt.autoApprove, diff)
		}
	}

	if _, err := TerraformArgs("import", "staging", false); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestTerraform_SelectsExistingWorkspace(t *testing.T) {
	root := projectRoot(t)
	rec := &recorder{}
	t.Setenv("HCLOUD_TOKEN", "hz")
	t.Setenv("CLOUDFLARE_API_TOKEN", "cf")

	if err := newManager(t, root, rec.runner()).Terraform(context.Background(), ActionApply, "staging", true); err != nil {
		t.Fatalf("Terraform failed: %v", err)
	}

	want := []string{
		"terraform init",
		"terraform workspace select staging",
		"terraform apply -var=environment=staging -auto-approve",
	}
	if diff := cmp.Diff(want, rec.lines()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	for _, c := range rec.calls {
		if c.Dir != filepath.Join(root, TerraformDir) {
			t.Errorf("expected %s to run in terraform dir, got %s", c, c.Dir)
		}
		if diff := cmp.Diff([]string{"HCLOUD_TOKEN=hz", "CLOUDFLARE_API_TOKEN=cf"}, c.Env); diff != "" {
			t.Errorf("env mismatch for %s (-want +got):\n%s", c, diff)
		}
	}
	if rec.calls[1].Stdout != nil {
		t.Error("expected workspace select output to be captured")
	}
}

func TestTerraform_CreatesMissingWorkspace(t *testing.T) {
	rec := &recorder{fail: map[string]int{"terraform workspace select dev": 1}}

	if err := newManager(t, projectRoot(t), rec.runner()).Terraform(context.Background(), ActionPlan, "dev", false); err != nil {
		t.Fatalf("Terraform failed: %v", err)
	}

	want := []string{
		"terraform init",
		"terraform workspace select dev",
		"terraform workspace new dev",
		"terraform plan -var=environment=dev",
	}
	if diff := cmp.Diff(want, rec.lines()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestTerraform_FailureIsAudited(t *testing.T) {
	repo := tempAudit(t)
	rec := &recorder{fail: map[string]int{"terraform plan -var=environment=dev": 2}}

	err := newManager(t, projectRoot(t), rec.runner(), WithAudit(repo)).Terraform(context.Background(), ActionPlan, "dev", false)

	var exitErr *runner.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode != 2 {
		t.Fatalf("expected exit error with code 2, got %v", err)
	}

	entries, _ := repo.List(auditlog.Filter{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	got := entries[0]
	if got.Command != "terraform plan" || got.Outcome != auditlog.OutcomeError || got.ExitCode != 2 ||
		got.Environment != "dev" || got.Tool != "terraform" {
		t.Errorf("unexpected audit entry: %+v", got)
	}
}

func TestTerraform_MissingDirectory(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}

	err := newManager(t, root, rec.runner()).Terraform(context.Background(), ActionPlan, "dev", false)
	if err == nil || !strings.Contains(err.Error(), "terraform directory") {
		t.Fatalf("expected missing directory error, got %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("expected no commands, got %v", rec.lines())
	}
}

func TestAnsibleArgs(t *testing.T) {
	const inv = "/srv/infra/ansible/inventories/dynamic"
	tests := []struct {
		name string
		opts AnsibleOpts
		want []string
	}{
		{"all", AnsibleOpts{Target: TargetAll}, []string{"playbooks/site.yml", "-i", inv}},
		{"domains dry run", AnsibleOpts{Target: TargetDomains, DryRun: true}, []string{"--check", "--diff", "playbooks/dynamic-deploy.yml", "-i", inv}},
		{"infrastructure verbose", AnsibleOpts{Target: TargetInfrastructure, Verbose: true}, []string{"-vvv", "playbooks/infrastructure/bootstrap.yml", "-i", inv}},
		{"domain", AnsibleOpts{Target: TargetDomain, Domain: "atl.dev"}, []string{
			"playbooks/domains/generic-domain.yml", "-i", inv, "--limit", "atl.dev", "--extra-vars", "target_domain=atl.dev",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AnsibleArgs(tt.opts, inv)
			if err != nil {
				t.Fatalf("AnsibleArgs failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnsibleArgs_Errors(t *testing.T) {
	if _, err := AnsibleArgs(AnsibleOpts{Target: TargetDomain}, "inv"); !errors.Is(err, ErrDomainRequired) {
		t.Errorf("expected ErrDomainRequired, got %v", err)
	}
	if _, err := AnsibleArgs(AnsibleOpts{Target: "everything"}, "inv"); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("expected ErrUnknownTarget, got %v", err)
	}
}

func TestAnsible_RunsInAnsibleDir(t *testing.T) {
	root := projectRoot(t)
	rec := &recorder{}
	repo := tempAudit(t)

	err := newManager(t, root, rec.runner(), WithAudit(repo)).Ansible(context.Background(), AnsibleOpts{Target: TargetAll, DryRun: true})
	if err != nil {
		t.Fatalf("Ansible failed: %v", err)
	}

	if len(rec.calls) != 1 {
		t.Fatalf("expected 1 command, got %v", rec.lines())
	}
	call := rec.calls[0]
	if call.Dir != filepath.Join(root, AnsibleDir) {
		t.Errorf("expected ansible dir, got %s", call.Dir)
	}
	want := "ansible-playbook --check --diff playbooks/site.yml -i " + filepath.Join(root, DefaultInventoryPath)
	if call.String() != want {
		t.Errorf("expected %q, got %q", want, call.String())
	}
	if diff := cmp.Diff([]string{ProjectRootEnv + "=" + root}, call.Env); diff != "" {
		t.Errorf("inventory script must be told the project root (-want +got):\n%s", diff)
	}

	entries, _ := repo.List(auditlog.Filter{Command: "ansible all"})
	if len(entries) != 1 || entries[0].Outcome != auditlog.OutcomeSuccess {
		t.Errorf("expected one successful audit entry, got %+v", entries)
	}
}

func TestSyntaxCheck(t *testing.T) {
	root := projectRoot(t)
	rec := &recorder{}
	if err := newManager(t, root, rec.runner()).SyntaxCheck(context.Background()); err != nil {
		t.Fatalf("SyntaxCheck failed: %v", err)
	}
	if diff := cmp.Diff([]string{"ansible-playbook playbooks/site.yml --syntax-check"}, rec.lines()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{ProjectRootEnv + "=" + root}, rec.calls[0].Env); diff != "" {
		t.Errorf("env mismatch (-want +got):\n%s", diff)
	}
}

func TestAnsible_RelativeRootIsExported(t *testing.T) {
	root := projectRoot(t)
	t.Chdir(filepath.Dir(root))
	rec := &recorder{}

	m := newManager(t, filepath.Base(root), rec.runner())
	if err := m.Ansible(context.Background(), AnsibleOpts{Target: TargetAll}); err != nil {
		t.Fatalf("Ansible failed: %v", err)
	}
	if diff := cmp.Diff([]string{ProjectRootEnv + "=" + root}, rec.calls[0].Env); diff != "" {
		t.Errorf("expected absolute root in env (-want +got):\n%s", diff)
	}
}

func TestPreflight(t *testing.T) {
	rec := &recorder{}
	if err := newManager(t, projectRoot(t), rec.runner()).Preflight(); err != nil {
		t.Errorf("expected preflight to pass, got %v", err)
	}

	err := newManager(t, t.TempDir(), rec.runner("terraform")).Preflight()
	if !errors.Is(err, ErrPreflight) {
		t.Fatalf("expected ErrPreflight, got %v", err)
	}
	for _, want := range []string{"declaration not found", "terraform not found"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestCheckCredentials(t *testing.T) {
	t.Setenv("HCLOUD_TOKEN", "")
	t.Setenv("CLOUDFLARE_API_TOKEN", "")
	store := auth.NewMockStore()
	_ = store.SetToken(auth.ProviderHetzner, "from-keyring")

	m := New(t.TempDir(), runner.Func{}, WithAuthStore(store))
	err := m.CheckCredentials()
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if !strings.Contains(err.Error(), "CLOUDFLARE_API_TOKEN") || strings.Contains(err.Error(), "HCLOUD_TOKEN") {
		t.Errorf("expected only cloudflare to be missing, got %q", err.Error())
	}

	t.Setenv("CLOUDFLARE_API_TOKEN", "cf")
	if err := m.CheckCredentials(); err != nil {
		t.Errorf("expected credentials to resolve, got %v", err)
	}
}
