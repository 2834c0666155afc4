// Package project locates the infrastructure repository and wires the
// inventory builder for it.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"allthingslinux/atl/internal/config"
	"allthingslinux/atl/internal/declaration"
	"allthingslinux/atl/internal/deploy"
	"allthingslinux/atl/internal/inventory"
	"allthingslinux/atl/internal/logging"
	"allthingslinux/atl/internal/overlay"
	"allthingslinux/atl/internal/runner"

	"go.uber.org/zap"
)

// RootEnv names the environment variable that overrides the configured
// project root.
const RootEnv = deploy.ProjectRootEnv

// DefaultEnvironment is the Terraform workspace used when neither --env nor
// default-environment is set.
const DefaultEnvironment = "development"

// ResolveRoot returns the absolute project root. The flag wins, then
// ATL_PROJECT_ROOT, then the project-root setting, then the working
// directory.
func ResolveRoot(flag string) (string, error) {
	root := strings.TrimSpace(flag)
	if root == "" {
		root = strings.TrimSpace(os.Getenv(RootEnv))
	}
	if root == "" {
		cfg, err := config.Load()
		if err != nil {
			return "", err
		}
		root = cfg.ProjectRoot
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("project: unable to determine working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("project: invalid root %q: %w", root, err)
	}
	return abs, nil
}

// ResolveEnvironment returns the deployment environment: the flag, then the
// default-environment setting, then DefaultEnvironment.
func ResolveEnvironment(flag string) (string, error) {
	spec := config.Lookup("default-environment")

	if v := strings.TrimSpace(flag); v != "" {
		return spec.Normalize(v)
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if cfg.DefaultEnvironment != "" {
		return cfg.DefaultEnvironment, nil
	}
	return DefaultEnvironment, nil
}

// DeclarationPath returns the declaration file under root.
func DeclarationPath(root string) string {
	return filepath.Join(root, declaration.DefaultRelPath)
}

// LogDir returns the log directory under root.
func LogDir(root string) string {
	return filepath.Join(root, logging.DefaultDir)
}

// Providers returns the overlay providers for root in order of preference:
// Terraform state first, then a local Vagrant environment.
func Providers(root string, r runner.Runner) []overlay.Provider {
	return []overlay.Provider{
		overlay.NewTerraform(filepath.Join(root, deploy.TerraformDir), r),
		overlay.NewVagrant(root, r),
	}
}

// NewBuilder returns an inventory builder for root, honouring the
// overlay-timeout setting.
func NewBuilder(root string, r runner.Runner, log *zap.SugaredLogger) (*inventory.Builder, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.OverlayTimeoutValue()
	if err != nil {
		return nil, err
	}
	return inventory.New(DeclarationPath(root),
		inventory.WithProviders(Providers(root, r)...),
		inventory.WithOverlayTimeout(timeout),
		inventory.WithLogger(log),
	), nil
}
