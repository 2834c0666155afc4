// Package config handles persistent user configuration for atl.
//
// Configuration is stored as JSON in config.json under Dir: $ATL_CONFIG_DIR
// when set, otherwise the atl directory inside os.UserConfigDir
// (~/.config/atl on Linux, ~/Library/Application Support/atl on macOS).
// The run history database lives in the same directory.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// DirEnv overrides the config directory.
const DirEnv = "ATL_CONFIG_DIR"

const (
	appDir   = "atl"
	fileName = "config.json"
)

// pathOverride, when non-empty, replaces the config file path and its
// directory. Intended for testing.
var pathOverride string

// SetPath overrides the config file path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override. Intended for testing.
func ResetPath() { pathOverride = "" }

// Config holds user preferences that persist across invocations.
type Config struct {
	ProjectRoot        string `json:"project_root,omitempty"`
	DefaultEnvironment string `json:"default_environment,omitempty"`
	OverlayTimeout     string `json:"overlay_timeout,omitempty"`
}

// Dir returns the directory holding atl's config file and database.
func Dir() (string, error) {
	if pathOverride != "" {
		return filepath.Dir(pathOverride), nil
	}
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir), nil
}

// Path returns the config file path.
func Path() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the config file at Path. A missing file yields a zero Config.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return Read(path)
}

// Read parses the config file at path. A missing file yields a zero Config.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes c to Path.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.Write(path)
}

// Write stores c at path, creating the directory as needed. The file is
// replaced atomically so a concurrent Read never sees a partial write.
func (c *Config) Write(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, "."+fileName+".*")
	if err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}

// OverlayTimeoutValue parses OverlayTimeout. An unset value returns 0, which
// callers treat as "use the default".
func (c *Config) OverlayTimeoutValue() (time.Duration, error) {
	if c.OverlayTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.OverlayTimeout)
	if err != nil {
		return 0, fmt.Errorf("config: invalid overlay-timeout %q: %w", c.OverlayTimeout, err)
	}
	return d, nil
}
