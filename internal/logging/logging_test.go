package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func touch(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("failed to set mtime on %s: %v", name, err)
	}
	return path
}

func names(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	sort.Strings(out)
	return out
}

func TestCleaner_KeepsNewestPerTool(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 7; i++ {
		touch(t, dir, "deploy-2026010"+string(rune('1'+i))+"_120000.log", time.Duration(7-i)*time.Hour)
	}
	touch(t, dir, "plan-20260101_120000.log", time.Hour)

	removed, err := NewCleaner(dir).Cleanup(DefaultPolicy)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	want := []string{"deploy-20260101_120000.log", "deploy-20260102_120000.log"}
	if diff := cmp.Diff(want, names(removed)); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}

	left, _ := filepath.Glob(filepath.Join(dir, "*.log"))
	if len(left) != 6 {
		t.Errorf("expected 6 files left, got %d", len(left))
	}
}

func TestCleaner_RemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "deploy-20260101_120000.log", 8*24*time.Hour)
	touch(t, dir, "deploy-20260110_120000.log", time.Hour)
	touch(t, dir, "lint-report-20260101.txt", 8*24*time.Hour)
	touch(t, dir, "lint-report-20260110.txt", time.Hour)
	touch(t, dir, "notes.txt", 30*24*time.Hour)

	removed, err := NewCleaner(dir).Cleanup(DefaultPolicy)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	want := []string{"deploy-20260101_120000.log", "lint-report-20260101.txt"}
	if diff := cmp.Diff(want, names(removed)); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("expected unrelated files to be left alone")
	}
}

func TestCleaner_PlanDoesNotRemove(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, dir, "deploy-20260101_120000.log", 8*24*time.Hour)

	planned, err := NewCleaner(dir).Plan(DefaultPolicy)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(planned) != 1 {
		t.Fatalf("expected 1 planned removal, got %v", planned)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("expected Plan to leave files in place")
	}
}

func TestCleaner_MissingDirectory(t *testing.T) {
	removed, err := NewCleaner(filepath.Join(t.TempDir(), "nope")).Cleanup(DefaultPolicy)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("expected nothing removed, got %v", removed)
	}
}

func TestOpen_WritesFileAndConsole(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)

	s, err := Open(SessionOptions{
		Dir:     dir,
		Tool:    "deploy",
		Console: &console,
		Now:     func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	s.Log.Infow("applying", "environment", "staging")
	s.Log.Debugw("terraform args", "args", "-auto-approve")
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if filepath.Base(s.Path) != "deploy-20260304_050607.log" {
		t.Errorf("unexpected log file name %s", s.Path)
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "applying") || !strings.Contains(string(data), "terraform args") {
		t.Errorf("expected info and debug lines in file, got:\n%s", data)
	}

	if !strings.Contains(console.String(), "applying") {
		t.Errorf("expected info line on console, got %q", console.String())
	}
	if strings.Contains(console.String(), "terraform args") {
		t.Error("expected debug line to stay off the console without verbose")
	}
}

func TestOpen_RequiresTool(t *testing.T) {
	if _, err := Open(SessionOptions{Dir: t.TempDir()}); err == nil {
		t.Error("expected error without tool name")
	}
}

func TestNewConsole_Verbose(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsole(&buf, true)
	log.Debug("overlay unavailable")
	if !strings.Contains(buf.String(), "overlay unavailable") {
		t.Errorf("expected debug output in verbose mode, got %q", buf.String())
	}
}
