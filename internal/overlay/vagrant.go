package overlay

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"allthingslinux/atl/internal/runner"
	"allthingslinux/atl/internal/vars"

	"github.com/kevinburke/ssh_config"
)

// VagrantPythonInterpreter is forced on every Vagrant host.
const VagrantPythonInterpreter = "/usr/bin/python3"

// vagrantEnv makes multi-machine Vagrantfiles report every defined machine.
var vagrantEnv = []string{"VAGRANT_GROUP=all"}

// Vagrant reads connection details of running machines from a local
// Vagrant environment.
type Vagrant struct {
	dir    string
	runner runner.Runner
}

// NewVagrant returns a provider that queries the Vagrant environment in dir.
func NewVagrant(dir string, r runner.Runner) *Vagrant {
	return &Vagrant{dir: dir, runner: r}
}

func (v *Vagrant) Name() string { return SourceVagrant }

// Fetch runs `vagrant status --machine-readable` followed by
// `vagrant ssh-config`. Neither command changes machine state.
func (v *Vagrant) Fetch(ctx context.Context) (*Overlay, error) {
	if _, err := v.runner.Run(ctx, runner.Command{Name: "vagrant", Args: []string{"--version"}, Dir: v.dir}); err != nil {
		return nil, fmt.Errorf("%w: vagrant not available: %v", ErrUnavailable, err)
	}

	status, err := v.runner.Run(ctx, runner.Command{
		Name: "vagrant",
		Args: []string{"status", "--machine-readable"},
		Dir:  v.dir,
		Env:  vagrantEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: vagrant status: %v", ErrUnavailable, err)
	}

	running := ParseVagrantStatus(status.Stdout)
	if len(running) == 0 {
		return nil, fmt.Errorf("%w: no running vagrant machines", ErrUnavailable)
	}

	sshConfig, err := v.runner.Run(ctx, runner.Command{
		Name: "vagrant",
		Args: []string{"ssh-config"},
		Dir:  v.dir,
		Env:  vagrantEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: vagrant ssh-config: %v", ErrUnavailable, err)
	}

	parsed, err := ParseVagrantSSHConfig(sshConfig.Stdout, running)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	hosts := make(map[string]*vars.Map, len(parsed))
	for host, raw := range parsed {
		hosts[host] = AnsibleConnectionVars(raw)
	}
	return NewHostOverlay(SourceVagrant, hosts), nil
}

// ParseVagrantStatus returns the names of running machines from
// machine-readable status output (timestamp,target,type,data...).
func ParseVagrantStatus(out []byte) []string {
	var running []string
	seen := make(map[string]bool)

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		parts := strings.Split(strings.TrimSpace(sc.Text()), ",")
		if len(parts) < 4 || parts[2] != "state" || parts[3] != "running" {
			continue
		}
		if name := parts[1]; name != "" && !seen[name] {
			seen[name] = true
			running = append(running, name)
		}
	}
	return running
}

// ParseVagrantSSHConfig parses `vagrant ssh-config` output into one map of
// options per host, keyed by the lower-cased option name in file order.
// Hosts not listed in running are skipped.
func ParseVagrantSSHConfig(out []byte, running []string) (map[string]*vars.Map, error) {
	cfg, err := ssh_config.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("vagrant ssh-config is not readable: %w", err)
	}

	want := make(map[string]bool, len(running))
	for _, name := range running {
		want[name] = true
	}

	hosts := make(map[string]*vars.Map)
	for _, h := range cfg.Hosts {
		if len(h.Patterns) == 0 {
			continue
		}
		name := h.Patterns[0].String()
		if !want[name] {
			continue
		}
		opts := vars.New()
		for _, node := range h.Nodes {
			if kv, ok := node.(*ssh_config.KV); ok {
				opts.Set(strings.ToLower(kv.Key), strings.TrimSpace(kv.Value))
			}
		}
		hosts[name] = opts
	}
	return hosts, nil
}

// AnsibleConnectionVars adds Ansible connection variables to the raw
// ssh-config options, which are kept as well.
func AnsibleConnectionVars(sshOpts *vars.Map) *vars.Map {
	out := sshOpts.Clone()
	if v, ok := sshOpts.String("hostname"); ok {
		out.Set("ansible_host", v)
	}
	if v, ok := sshOpts.String("user"); ok {
		out.Set("ansible_user", v)
	}
	if v, ok := sshOpts.String("identityfile"); ok {
		out.Set("ansible_ssh_private_key_file", strings.Trim(v, `"`))
	}
	if v, ok := sshOpts.String("port"); ok {
		out.Set("ansible_port", v)
	}
	out.Set("ansible_python_interpreter", VagrantPythonInterpreter)
	return out
}
