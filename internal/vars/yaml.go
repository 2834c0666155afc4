package vars

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a YAML mapping into m, keeping key order. A null
// node yields an empty map.
func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	v, err := FromNode(node)
	if err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*m = *New()
	case *Map:
		*m = *t
	default:
		return fmt.Errorf("vars: line %d: expected a mapping, got %T", node.Line, v)
	}
	return nil
}

// FromNode converts a YAML node tree into plain values: mappings become
// *Map, sequences []any, and scalars their resolved Go type. Aliases and
// merge keys ("<<") are resolved.
func FromNode(n *yaml.Node) (any, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return FromNode(n.Content[0])
	case yaml.MappingNode:
		return mapFromNode(n)
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := FromNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.AliasNode:
		return FromNode(n.Alias)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("vars: line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("vars: line %d: unsupported node kind %d", n.Line, n.Kind)
	}
}

func mapFromNode(n *yaml.Node) (*Map, error) {
	m := New()
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		if key.Kind == yaml.ScalarNode && key.ShortTag() == "!!merge" {
			if err := mergeInto(m, value); err != nil {
				return nil, err
			}
			continue
		}
		v, err := FromNode(value)
		if err != nil {
			return nil, err
		}
		m.Set(key.Value, v)
	}
	return m, nil
}

// mergeInto applies a "<<" merge: merged keys never override keys that are
// set explicitly, wherever they appear in the mapping.
func mergeInto(m *Map, n *yaml.Node) error {
	for n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.MappingNode:
		src, err := mapFromNode(n)
		if err != nil {
			return err
		}
		src.Range(func(k string, v any) bool {
			m.SetDefault(k, v)
			return true
		})
		return nil
	case yaml.SequenceNode:
		for _, c := range n.Content {
			if err := mergeInto(m, c); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("vars: line %d: merge value must be a mapping", n.Line)
	}
}
