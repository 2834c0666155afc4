package declaration

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// SetEnabled rewrites domains.<name>.enabled in the declaration file at
// path. The file is edited through its node tree, so comments, anchors and
// key order survive.
func SetEnabled(path, name string, enabled bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w at %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("declaration: failed to read %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return fmt.Errorf("%w: domain %q", ErrDomainNotFound, name)
	}

	domains := mappingValue(doc.Content[0], SectionDomains)
	if domains == nil {
		return fmt.Errorf("%w: domain %q", ErrDomainNotFound, name)
	}
	item := mappingValue(domains, name)
	if item == nil {
		return fmt.Errorf("%w: domain %q", ErrDomainNotFound, name)
	}

	switch item.Kind {
	case yaml.MappingNode:
	case yaml.ScalarNode:
		if item.ShortTag() != "!!null" {
			return fmt.Errorf("%w: domain %q is not a mapping", ErrConfigParse, name)
		}
		// "name:" with no body becomes an empty mapping.
		*item = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	default:
		return fmt.Errorf("declaration: domain %q must be a plain mapping to be edited", name)
	}

	if existing := mappingValue(item, "enabled"); existing != nil {
		// Keep the node's comments.
		existing.Kind = yaml.ScalarNode
		existing.Tag = "!!bool"
		existing.Value = strconv.FormatBool(enabled)
		existing.Style = 0
		existing.Alias = nil
		existing.Content = nil
	} else {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "enabled"}
		value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(enabled)}
		item.Content = append([]*yaml.Node{key, value}, item.Content...)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("declaration: failed to encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("declaration: failed to encode %s: %w", path, err)
	}

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, buf.Bytes(), mode); err != nil {
		return fmt.Errorf("declaration: failed to write %s: %w", path, err)
	}
	return nil
}

// mappingValue returns the value node for key in a mapping node, or nil.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
