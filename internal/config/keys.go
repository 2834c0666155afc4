package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// KeySpec describes a single configuration key.
type KeySpec struct {
	// Name is the CLI-facing key name (e.g. "project-root").
	Name string

	// Description is a short human-readable explanation shown in help text.
	Description string

	// Get returns the current value for this key from a loaded Config.
	Get func(cfg *Config) string

	// Set applies a value for this key to the given Config (in memory only;
	// the caller is responsible for calling Save).
	Set func(cfg *Config, value string)

	// Normalize validates a user-supplied value and returns the form to
	// store. Nil means the value is stored as given.
	Normalize func(value string) (string, error)
}

var environmentName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Keys is the authoritative list of all supported configuration keys.
// To add a new option: add a field to Config and append a KeySpec here.
var Keys = []KeySpec{
	{
		Name:        "project-root",
		Description: "Infrastructure repository root (holds configs/, terraform/, ansible/)",
		Get:         func(cfg *Config) string { return cfg.ProjectRoot },
		Set:         func(cfg *Config, v string) { cfg.ProjectRoot = v },
		Normalize: func(v string) (string, error) {
			v = strings.TrimSpace(v)
			if v == "" {
				return "", fmt.Errorf("project root must not be empty")
			}
			return filepath.Abs(v)
		},
	},
	{
		Name:        "default-environment",
		Description: "Terraform workspace used when --env is not specified",
		Get:         func(cfg *Config) string { return cfg.DefaultEnvironment },
		Set:         func(cfg *Config, v string) { cfg.DefaultEnvironment = v },
		Normalize: func(v string) (string, error) {
			v = strings.ToLower(strings.TrimSpace(v))
			if !environmentName.MatchString(v) {
				return "", fmt.Errorf("invalid environment name %q", v)
			}
			return v, nil
		},
	},
	{
		Name:        "overlay-timeout",
		Description: "Time limit for each Terraform/Vagrant inventory query (e.g. 30s)",
		Get:         func(cfg *Config) string { return cfg.OverlayTimeout },
		Set:         func(cfg *Config, v string) { cfg.OverlayTimeout = v },
		Normalize: func(v string) (string, error) {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return "", fmt.Errorf("invalid duration %q: %w", v, err)
			}
			if d <= 0 {
				return "", fmt.Errorf("overlay timeout must be positive, got %s", d)
			}
			return d.String(), nil
		},
	},
}

// Lookup returns the KeySpec for the given name, or nil if not found.
// The name is matched case-insensitively after trimming whitespace.
func Lookup(name string) *KeySpec {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i := range Keys {
		if Keys[i].Name == normalized {
			return &Keys[i]
		}
	}
	return nil
}

// KeyNames returns the names of all registered keys.
func KeyNames() []string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = k.Name
	}
	return names
}

// KeysHelp builds a formatted block listing all available keys and their
// descriptions, suitable for inclusion in Cobra Long help text.
func KeysHelp() string {
	if len(Keys) == 0 {
		return ""
	}

	maxLen := 0
	for _, k := range Keys {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		fmt.Fprintf(&b, "  %-*s   %s\n", maxLen, k.Name, k.Description)
	}
	return b.String()
}
