package overlay

import (
	"context"
	"fmt"
	"os"

	"allthingslinux/atl/internal/runner"
	"allthingslinux/atl/internal/vars"
)

// TerraformOutputName is the Terraform output holding the Ansible inventory.
const TerraformOutputName = "ansible_inventory"

// Terraform reads the ansible_inventory output of a Terraform root module.
type Terraform struct {
	dir    string
	output string
	runner runner.Runner
}

// NewTerraform returns a provider that queries the Terraform state in dir.
func NewTerraform(dir string, r runner.Runner) *Terraform {
	return &Terraform{dir: dir, output: TerraformOutputName, runner: r}
}

func (t *Terraform) Name() string { return SourceTerraform }

// Fetch runs `terraform output -json ansible_inventory`. The command only
// reads state.
func (t *Terraform) Fetch(ctx context.Context) (*Overlay, error) {
	info, err := os.Stat(t.dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: terraform directory %s not found", ErrUnavailable, t.dir)
	}

	res, err := t.runner.Run(ctx, runner.Command{
		Name: "terraform",
		Args: []string{"output", "-json", t.output},
		Dir:  t.dir,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: terraform output not available: %v", ErrUnavailable, err)
	}

	ov, err := ParseTerraformOutput(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ov, nil
}

// ParseTerraformOutput decodes the ansible_inventory output. Terraform prints
// the output as a JSON string that itself contains the inventory JSON, so the
// payload is decoded twice; an already-decoded object is accepted as well.
//
// Only all.children.<group>.hosts.<host> entries are kept. Any non-empty
// object marks the overlay present, hosts or not.
func ParseTerraformOutput(data []byte) (*Overlay, error) {
	v, err := vars.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("terraform output is not JSON: %w", err)
	}
	if s, ok := v.(string); ok {
		v, err = vars.DecodeJSON([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("terraform inventory is not JSON: %w", err)
		}
	}
	root, ok := v.(*vars.Map)
	if !ok {
		return nil, fmt.Errorf("terraform inventory must be an object, got %T", v)
	}

	groups := make(map[string]map[string]*vars.Map)
	all, _ := root.Sub("all")
	children, _ := all.Sub("children")
	children.Range(func(group string, body any) bool {
		g, ok := body.(*vars.Map)
		if !ok {
			return true
		}
		hosts, ok := g.Sub("hosts")
		if !ok {
			return true
		}
		hosts.Range(func(host string, hv any) bool {
			m, ok := hv.(*vars.Map)
			if !ok || m.Len() == 0 {
				return true
			}
			if groups[group] == nil {
				groups[group] = make(map[string]*vars.Map)
			}
			groups[group][host] = m
			return true
		})
		return true
	})

	ov := NewGroupOverlay(SourceTerraform, groups)
	ov.declared = root.Len() > 0
	return ov, nil
}
