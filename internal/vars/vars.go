// Package vars provides an insertion-ordered, string-keyed map used for host
// variables and declaration items.
//
// Setting an existing key replaces its value but keeps its original position,
// so a sequence of Update calls behaves like layering dictionaries: later
// layers win on collision while the key order reflects first appearance.
package vars

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Map is an insertion-ordered map. The zero value is not usable; use New.
type Map struct {
	keys   []string
	values map[string]any
}

// New returns an empty Map.
func New() *Map {
	return &Map{values: make(map[string]any)}
}

// Of builds a Map from alternating key/value arguments. It panics on an odd
// number of arguments or a non-string key.
func Of(pairs ...any) *Map {
	if len(pairs)%2 != 0 {
		panic("vars: Of requires key/value pairs")
	}
	m := New()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("vars: key %v is not a string", pairs[i]))
		}
		m.Set(key, pairs[i+1])
	}
	return m
}

// Len returns the number of keys. A nil Map has length zero.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key. A new key is appended; an existing key keeps
// its position.
func (m *Map) Set(key string, value any) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// SetDefault stores value only if key is absent. It reports whether the
// value was stored.
func (m *Map) SetDefault(key string, value any) bool {
	if _, exists := m.values[key]; exists {
		return false
	}
	m.Set(key, value)
	return true
}

// Delete removes key if present.
func (m *Map) Delete(key string) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
}

// Update copies every entry of other into m, in other's order.
func (m *Map) Update(other *Map) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		m.Set(k, other.values[k])
	}
}

// Range calls fn for each entry in order until fn returns false.
func (m *Map) Range(fn func(key string, value any) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Clone returns a deep copy of m. Nested maps and slices are copied.
func (m *Map) Clone() *Map {
	out := New()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out.Set(k, cloneValue(m.values[k]))
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Merge layers maps left to right into a new Map. Later layers override
// earlier ones; nil layers are skipped. The inputs are not modified.
func Merge(layers ...*Map) *Map {
	out := New()
	for _, layer := range layers {
		out.Update(layer.Clone())
	}
	return out
}

// Equal reports whether m and other hold the same keys and values.
// Key positions are ignored.
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	for _, k := range m.Keys() {
		ov, ok := other.Get(k)
		if !ok {
			return false
		}
		mv, _ := m.Get(k)
		if !valuesEqual(mv, ov) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	switch at := a.(type) {
	case *Map:
		bt, ok := b.(*Map)
		return ok && at.Equal(bt)
	case []any:
		bt, ok := b.([]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !valuesEqual(at[i], bt[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// String returns the value under key when it is a non-empty string.
func (m *Map) String(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Sub returns the nested map stored under key, if any.
func (m *Map) Sub(key string) (*Map, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	sub, ok := v.(*Map)
	return sub, ok && sub != nil
}

// Truthy reports whether v would be considered set in a YAML/JSON document:
// true, non-zero numbers, non-empty strings (other than false-like words),
// and non-empty collections.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "false", "no", "off", "0", "n":
			return false
		}
		return true
	case int:
		return t != 0
	case int64:
		return t != 0
	case uint64:
		return t != 0
	case float64:
		return t != 0
	case interface{ Int64() (int64, error) }:
		n, err := t.Int64()
		return err != nil || n != 0
	case []any:
		return len(t) > 0
	case *Map:
		return t.Len() > 0
	default:
		return true
	}
}

// Int converts a numeric value (or numeric string) to int.
func Int(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case uint64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	case interface{ Int64() (int64, error) }:
		n, err := t.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}
