package overlay

import (
	"context"
	"errors"
	"strings"
	"testing"

	"allthingslinux/atl/internal/runner"
	"allthingslinux/atl/internal/vars"

	"github.com/google/go-cmp/cmp"
)

const terraformOutput = `"{\"all\":{\"children\":{\"atl_dev\":{\"hosts\":{\"atl.dev\":{\"ansible_host\":\"1.2.3.4\",\"ipv6\":\"2001:db8::1\"}}},\"monitoring\":{\"hosts\":{\"monitoring-prometheus\":{\"ansible_host\":\"5.6.7.8\"},\"empty\":{}}}}}}"`

const vagrantStatus = `1700000000,atl-dev,metadata,provider,virtualbox
1700000000,atl-dev,state,running
1700000000,atl-dev,state-human-short,running
1700000000,atl-tools,state,poweroff
1700000000,monitoring-grafana,state,running
`

const vagrantSSHConfig = `Host atl-dev
  HostName 127.0.0.1
  User vagrant
  Port 2222
  UserKnownHostsFile /dev/null
  IdentityFile "/home/me/.vagrant/machines/atl-dev/virtualbox/private_key"

Host atl-tools
  HostName 127.0.0.1
  User vagrant
  Port 2200

Host monitoring-grafana
  HostName 127.0.0.1
  User vagrant
  Port 2201
`

func TestParseTerraformOutput_DoubleEncoded(t *testing.T) {
	ov, err := ParseTerraformOutput([]byte(terraformOutput))
	if err != nil {
		t.Fatalf("ParseTerraformOutput failed: %v", err)
	}

	if ov.Source() != SourceTerraform {
		t.Errorf("expected source %q, got %q", SourceTerraform, ov.Source())
	}
	if ov.HostCount() != 2 {
		t.Errorf("expected 2 hosts (empty entries dropped), got %d", ov.HostCount())
	}

	hv, ok := ov.Lookup("atl_dev", "atl.dev")
	if !ok {
		t.Fatal("expected atl.dev in group atl_dev")
	}
	if diff := cmp.Diff([]string{"ansible_host", "ipv6"}, hv.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	if _, ok := ov.Lookup("monitoring", "atl.dev"); ok {
		t.Error("terraform lookups must be scoped by group")
	}
	if _, ok := ov.Lookup("monitoring", "empty"); ok {
		t.Error("expected empty host entry to be ignored")
	}
}

func TestParseTerraformOutput_SingleEncoded(t *testing.T) {
	ov, err := ParseTerraformOutput([]byte(`{"all":{"children":{"web":{"hosts":{"web-1":{"ansible_host":"9.9.9.9"}}}}}}`))
	if err != nil {
		t.Fatalf("ParseTerraformOutput failed: %v", err)
	}
	if _, ok := ov.Lookup("web", "web-1"); !ok {
		t.Error("expected web-1 in group web")
	}
}

func TestParseTerraformOutput_Malformed(t *testing.T) {
	for _, in := range []string{``, `not json`, `"not json inside"`, `[1,2]`, `"[]"`} {
		if _, err := ParseTerraformOutput([]byte(in)); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestParseTerraformOutput_NoChildren(t *testing.T) {
	ov, err := ParseTerraformOutput([]byte(`"{\"all\":{}}"`))
	if err != nil {
		t.Fatalf("ParseTerraformOutput failed: %v", err)
	}
	if !ov.Empty() {
		t.Error("expected no hosts")
	}
	if !ov.Present() {
		t.Error("expected a non-empty document to mark the overlay present")
	}
}

func TestParseTerraformOutput_EmptyObject(t *testing.T) {
	for _, in := range []string{`"{}"`, `{}`} {
		ov, err := ParseTerraformOutput([]byte(in))
		if err != nil {
			t.Fatalf("ParseTerraformOutput(%s) failed: %v", in, err)
		}
		if ov.Present() {
			t.Errorf("ParseTerraformOutput(%s): expected overlay not present", in)
		}
	}
}

func TestOverlay_Present(t *testing.T) {
	var nilOverlay *Overlay
	if nilOverlay.Present() {
		t.Error("expected nil overlay not present")
	}
	if NewHostOverlay(SourceVagrant, nil).Present() {
		t.Error("expected overlay without hosts not present")
	}
	hosts := NewHostOverlay(SourceVagrant, map[string]*vars.Map{"atl-dev": vars.Of("ansible_port", "2222")})
	if !hosts.Present() {
		t.Error("expected overlay with hosts present")
	}
}

func TestParseVagrantStatus(t *testing.T) {
	got := ParseVagrantStatus([]byte(vagrantStatus))
	if diff := cmp.Diff([]string{"atl-dev", "monitoring-grafana"}, got); diff != "" {
		t.Errorf("running mismatch (-want +got):\n%s", diff)
	}
}

func TestParseVagrantSSHConfig_OnlyRunning(t *testing.T) {
	hosts, err := ParseVagrantSSHConfig([]byte(vagrantSSHConfig), []string{"atl-dev", "monitoring-grafana"})
	if err != nil {
		t.Fatalf("ParseVagrantSSHConfig failed: %v", err)
	}

	if _, ok := hosts["atl-tools"]; ok {
		t.Error("expected stopped machine to be skipped")
	}
	if len(hosts) != 2 {
		t.Fatalf("expected 2 hosts, got %d", len(hosts))
	}
	dev := hosts["atl-dev"]
	if diff := cmp.Diff([]string{"hostname", "user", "port", "userknownhostsfile", "identityfile"}, dev.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if v, _ := dev.String("port"); v != "2222" {
		t.Errorf("expected port 2222, got %q", v)
	}
	if v, _ := dev.String("identityfile"); strings.Trim(v, `"`) != "/home/me/.vagrant/machines/atl-dev/virtualbox/private_key" {
		t.Errorf("unexpected identityfile %q", v)
	}
}

func TestParseVagrantSSHConfig_NoHosts(t *testing.T) {
	hosts, err := ParseVagrantSSHConfig([]byte(vagrantSSHConfig), nil)
	if err != nil {
		t.Fatalf("ParseVagrantSSHConfig failed: %v", err)
	}
	if len(hosts) != 0 {
		t.Errorf("expected no hosts, got %v", hosts)
	}
}

func TestAnsibleConnectionVars(t *testing.T) {
	raw := vars.Of(
		"hostname", "127.0.0.1",
		"user", "vagrant",
		"port", "2222",
		"identityfile", `"/keys/private_key"`,
		"userknownhostsfile", "/dev/null",
	)

	got := AnsibleConnectionVars(raw)
	want := vars.Of(
		"hostname", "127.0.0.1",
		"user", "vagrant",
		"port", "2222",
		"identityfile", `"/keys/private_key"`,
		"userknownhostsfile", "/dev/null",
		"ansible_host", "127.0.0.1",
		"ansible_user", "vagrant",
		"ansible_ssh_private_key_file", "/keys/private_key",
		"ansible_port", "2222",
		"ansible_python_interpreter", VagrantPythonInterpreter,
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("vars mismatch (-want +got):\n%s", diff)
	}
	if _, ok := raw.Get("ansible_host"); ok {
		t.Error("expected raw options to be left untouched")
	}
}

// scriptedRunner answers commands by their argument line.
func scriptedRunner(t *testing.T, outputs map[string]string, calls *[]runner.Command) runner.Func {
	t.Helper()
	return runner.Func{RunFunc: func(_ context.Context, cmd runner.Command) (*runner.Result, error) {
		*calls = append(*calls, cmd)
		out, ok := outputs[strings.Join(cmd.Args, " ")]
		if !ok {
			return &runner.Result{ExitCode: 1}, &runner.ExitError{Command: cmd.String(), ExitCode: 1}
		}
		return &runner.Result{Stdout: []byte(out)}, nil
	}}
}

func TestVagrant_Fetch(t *testing.T) {
	var calls []runner.Command
	r := scriptedRunner(t, map[string]string{
		"--version":                 "Vagrant 2.4.1\n",
		"status --machine-readable": vagrantStatus,
		"ssh-config":                vagrantSSHConfig,
	}, &calls)

	ov, err := NewVagrant(t.TempDir(), r).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	hv, ok := ov.Lookup("any_group", "atl-dev")
	if !ok {
		t.Fatal("expected vagrant lookup by hostname regardless of group")
	}
	if v, _ := hv.String("ansible_port"); v != "2222" {
		t.Errorf("expected ansible_port 2222, got %q", v)
	}
	if ov.HostCount() != 2 {
		t.Errorf("expected 2 hosts, got %d", ov.HostCount())
	}

	if len(calls) != 3 {
		t.Fatalf("expected 3 vagrant calls, got %d", len(calls))
	}
	for _, c := range calls[1:] {
		if diff := cmp.Diff([]string{"VAGRANT_GROUP=all"}, c.Env); diff != "" {
			t.Errorf("env mismatch for %s (-want +got):\n%s", c, diff)
		}
	}
}

func TestVagrant_NotInstalled(t *testing.T) {
	r := runner.Func{Missing: []string{"vagrant"}}

	_, err := NewVagrant(t.TempDir(), r).Fetch(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestVagrant_NothingRunning(t *testing.T) {
	var calls []runner.Command
	r := scriptedRunner(t, map[string]string{
		"--version":                 "Vagrant 2.4.1\n",
		"status --machine-readable": "1700000000,atl-dev,state,poweroff\n",
	}, &calls)

	_, err := NewVagrant(t.TempDir(), r).Fetch(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if len(calls) != 2 {
		t.Errorf("expected ssh-config to be skipped, got %d calls", len(calls))
	}
}

func TestTerraform_Fetch(t *testing.T) {
	dir := t.TempDir()
	var calls []runner.Command
	r := scriptedRunner(t, map[string]string{
		"output -json ansible_inventory": terraformOutput,
	}, &calls)

	ov, err := NewTerraform(dir, r).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if ov.HostCount() != 2 {
		t.Errorf("expected 2 hosts, got %d", ov.HostCount())
	}
	if calls[0].Dir != dir {
		t.Errorf("expected terraform to run in %s, got %s", dir, calls[0].Dir)
	}
}

func TestTerraform_MissingDirectory(t *testing.T) {
	r := runner.Func{RunFunc: func(context.Context, runner.Command) (*runner.Result, error) {
		t.Fatal("terraform must not run without its directory")
		return nil, nil
	}}

	_, err := NewTerraform("/nonexistent/terraform", r).Fetch(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestTerraform_CommandFails(t *testing.T) {
	var calls []runner.Command
	r := scriptedRunner(t, map[string]string{}, &calls)

	_, err := NewTerraform(t.TempDir(), r).Fetch(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestLookup_NilOverlay(t *testing.T) {
	var ov *Overlay
	if _, ok := ov.Lookup("g", "h"); ok {
		t.Error("expected nil overlay lookup to miss")
	}
	if !ov.Empty() {
		t.Error("expected nil overlay to be empty")
	}
}
