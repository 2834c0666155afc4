package logs

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"allthingslinux/atl/internal/config"
	"allthingslinux/atl/internal/project"
)

func setupLogs(t *testing.T) string {
	t.Helper()
	config.SetPath(filepath.Join(t.TempDir(), "config.json"))
	t.Cleanup(config.ResetPath)

	root := t.TempDir()
	t.Setenv(project.RootEnv, root)
	dir := project.LogDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func touch(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	mod := time.Now().Add(-age)
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
	return path
}

func execLogs(t *testing.T, args ...string) (stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	cmd.Execute()
	return outBuf.String(), errBuf.String()
}

func TestCleanup_DryRunKeepsFiles(t *testing.T) {
	dir := setupLogs(t)
	old := touch(t, dir, "deploy-20240101_000000.log", 10*24*time.Hour)
	touch(t, dir, "deploy-20240110_000000.log", time.Hour)

	stdout, stderr := execLogs(t, "cleanup", "--dry-run")
	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, "Would remove 1 file(s)") || !strings.Contains(stdout, filepath.Base(old)) {
		t.Errorf("unexpected output:\n%s", stdout)
	}
	if _, err := os.Stat(old); err != nil {
		t.Errorf("dry run must not remove files: %v", err)
	}
}

func TestCleanup_MaxFiles(t *testing.T) {
	dir := setupLogs(t)
	var paths []string
	for i, name := range []string{
		"deploy-20240101_000001.log",
		"deploy-20240101_000002.log",
		"deploy-20240101_000003.log",
	} {
		paths = append(paths, touch(t, dir, name, time.Duration(3-i)*time.Hour))
	}
	report := touch(t, dir, "lint-report-2024.txt", 30*24*time.Hour)

	stdout, _ := execLogs(t, "cleanup", "--max-files", "2")
	if !strings.Contains(stdout, "Removed 2 file(s)") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
	for _, gone := range []string{paths[0], report} {
		if _, err := os.Stat(gone); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed", filepath.Base(gone))
		}
	}
	for _, kept := range paths[1:] {
		if _, err := os.Stat(kept); err != nil {
			t.Errorf("expected %s to be kept: %v", filepath.Base(kept), err)
		}
	}
}

func TestCleanup_NothingToDo(t *testing.T) {
	setupLogs(t)

	stdout, _ := execLogs(t, "cleanup")
	if !strings.Contains(stdout, "Nothing to clean up.") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestCleanup_RejectsNegative(t *testing.T) {
	setupLogs(t)

	_, stderr := execLogs(t, "cleanup", "--max-age=-1")
	if !strings.Contains(stderr, "must not be negative") {
		t.Errorf("expected validation error, got: %s", stderr)
	}
}
