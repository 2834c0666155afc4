package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"allthingslinux/atl/internal/config"
)

// setupTestConfig points the config package at a temp file and returns its path.
func setupTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	config.SetPath(path)
	t.Cleanup(config.ResetPath)
	return path
}

// execConfig creates the config command, wires up output buffers, runs with the
// given args, and returns what was written to stdout and stderr.
func execConfig(t *testing.T, args ...string) (stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	cmd.Execute()
	return outBuf.String(), errBuf.String()
}

func TestSet_DefaultEnvironment(t *testing.T) {
	setupTestConfig(t)

	stdout, stderr := execConfig(t, "set", "default-environment", "Staging")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, `"staging"`) {
		t.Errorf("expected normalized environment, got: %s", stdout)
	}

	// Verify it was persisted.
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.DefaultEnvironment != "staging" {
		t.Errorf("expected DefaultEnvironment %q, got %q", "staging", cfg.DefaultEnvironment)
	}
}

func TestSet_InvalidEnvironment(t *testing.T) {
	setupTestConfig(t)

	_, stderr := execConfig(t, "set", "default-environment", "not valid!")

	if !strings.Contains(stderr, "invalid environment name") {
		t.Errorf("expected 'invalid environment name' error, got: %s", stderr)
	}
}

func TestSet_ProjectRootIsAbsolute(t *testing.T) {
	setupTestConfig(t)

	execConfig(t, "set", "project-root", "relative/infra")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !filepath.IsAbs(cfg.ProjectRoot) {
		t.Errorf("expected absolute project root, got %q", cfg.ProjectRoot)
	}
}

func TestSet_OverlayTimeout(t *testing.T) {
	setupTestConfig(t)

	stdout, _ := execConfig(t, "set", "overlay-timeout", "90s")
	if !strings.Contains(stdout, `"1m30s"`) {
		t.Errorf("expected canonical duration, got: %s", stdout)
	}

	_, stderr := execConfig(t, "set", "overlay-timeout", "0s")
	if !strings.Contains(stderr, "must be positive") {
		t.Errorf("expected non-positive timeout error, got: %s", stderr)
	}
}

func TestSet_UnknownKey(t *testing.T) {
	setupTestConfig(t)

	_, stderr := execConfig(t, "set", "bogus-key", "value")

	if !strings.Contains(stderr, "unknown configuration key") {
		t.Errorf("expected 'unknown configuration key' error, got: %s", stderr)
	}
}
