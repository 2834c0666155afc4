// Package declaration loads the domain declaration file (domains.yml) that
// describes every logical infrastructure item, and edits its enablement flags.
package declaration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"allthingslinux/atl/internal/vars"

	"gopkg.in/yaml.v3"
)

// DefaultRelPath is the declaration file location relative to the project root.
const DefaultRelPath = "configs/domains.yml"

const (
	DefaultEnvironment = "production"
	DefaultProjectName = "allthingslinux"
	DefaultUser        = "ansible"
)

const (
	SectionDomains = "domains"
	SectionShared  = "shared_infrastructure"
)

var (
	// ErrConfigNotFound indicates the declaration file does not exist.
	ErrConfigNotFound = errors.New("declaration file not found")

	// ErrConfigParse indicates the declaration file is not valid YAML or
	// does not have the expected shape.
	ErrConfigParse = errors.New("declaration file is malformed")

	// ErrDomainNotFound indicates a named domain is absent from the
	// domains section.
	ErrDomainNotFound = errors.New("domain not found")
)

// Config is the parsed declaration file.
type Config struct {
	Global               *vars.Map `yaml:"global"`
	Domains              Section   `yaml:"domains"`
	SharedInfrastructure Section   `yaml:"shared_infrastructure"`
}

// Section is an ordered list of items from one top-level mapping.
type Section struct {
	Items []Item
}

// UnmarshalYAML decodes a mapping of item name to item body.
func (s *Section) UnmarshalYAML(node *yaml.Node) error {
	v, err := vars.FromNode(node)
	if err != nil {
		return err
	}
	if v == nil {
		s.Items = nil
		return nil
	}
	m, ok := v.(*vars.Map)
	if !ok {
		return fmt.Errorf("line %d: expected a mapping of items, got %T", node.Line, v)
	}

	items := make([]Item, 0, m.Len())
	var itemErr error
	m.Range(func(name string, body any) bool {
		switch data := body.(type) {
		case nil:
			items = append(items, Item{Name: name, Data: vars.New()})
		case *vars.Map:
			items = append(items, Item{Name: name, Data: data})
		default:
			itemErr = fmt.Errorf("item %q: expected a mapping, got %T", name, body)
			return false
		}
		return true
	})
	if itemErr != nil {
		return itemErr
	}
	s.Items = items
	return nil
}

// Load reads and parses the declaration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("declaration: failed to read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes declaration YAML. source is used in error messages only.
func Parse(data []byte, source string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, source, err)
	}
	return &cfg, nil
}

// Environment returns global.environment, defaulting to "production".
func (c *Config) Environment() string {
	return c.globalString("environment", DefaultEnvironment)
}

// ProjectName returns global.project_name, defaulting to "allthingslinux".
func (c *Config) ProjectName() string {
	return c.globalString("project_name", DefaultProjectName)
}

// DefaultUser returns global.default_user, defaulting to "ansible".
func (c *Config) DefaultUser() string {
	return c.globalString("default_user", DefaultUser)
}

// BackupEnabled reports global.backup.
func (c *Config) BackupEnabled() bool {
	v, _ := c.Global.Get("backup")
	return vars.Truthy(v)
}

func (c *Config) globalString(key, fallback string) string {
	v, ok := c.Global.Get(key)
	if !ok || v == nil {
		return fallback
	}
	s := fmt.Sprint(v)
	if s == "" {
		return fallback
	}
	return s
}

// Items returns every item from domains followed by shared_infrastructure.
// A shared item whose name already appeared under domains replaces it in
// place.
func (c *Config) Items() []Item {
	items := make([]Item, 0, len(c.Domains.Items)+len(c.SharedInfrastructure.Items))
	index := make(map[string]int, cap(items))

	add := func(section string, list []Item) {
		for _, it := range list {
			it.Section = section
			if i, ok := index[it.Name]; ok {
				items[i] = it
				continue
			}
			index[it.Name] = len(items)
			items = append(items, it)
		}
	}
	add(SectionDomains, c.Domains.Items)
	add(SectionShared, c.SharedInfrastructure.Items)

	return items
}

// Domain returns the named entry from the domains section.
func (c *Config) Domain(name string) (Item, bool) {
	for _, it := range c.Domains.Items {
		if it.Name == name {
			it.Section = SectionDomains
			return it, true
		}
	}
	return Item{}, false
}

// EnabledDomains returns the domains that are enabled and not external.
func (c *Config) EnabledDomains() []Item {
	var out []Item
	for _, it := range c.Domains.Items {
		if it.Provisioned() {
			it.Section = SectionDomains
			out = append(out, it)
		}
	}
	return out
}

// DisabledDomains returns the domains that are either disabled or external.
func (c *Config) DisabledDomains() []Item {
	var out []Item
	for _, it := range c.Domains.Items {
		if !it.Provisioned() {
			it.Section = SectionDomains
			out = append(out, it)
		}
	}
	return out
}
