package declaration

import (
	"fmt"
	"strings"

	"allthingslinux/atl/internal/vars"
)

// Item is one named entry under domains or shared_infrastructure. Data holds
// the raw declaration, including keys this package does not interpret.
type Item struct {
	Name    string
	Section string
	Data    *vars.Map
}

// Enabled reports the item's enabled flag. Items are disabled by default.
func (it Item) Enabled() bool {
	v, _ := it.Data.Get("enabled")
	return vars.Truthy(v)
}

// External reports whether the item is hosted elsewhere and must not be
// provisioned.
func (it Item) External() bool {
	v, _ := it.Data.Get("external")
	return vars.Truthy(v)
}

// Provisioned reports whether the item takes part in provisioning: it is
// enabled and not external.
func (it Item) Provisioned() bool {
	return it.Enabled() && !it.External()
}

// Domain returns the item's domain name, if set.
func (it Item) Domain() string {
	s, _ := it.Data.String("domain")
	return s
}

// Services returns the declared services in order.
func (it Item) Services() []string {
	return StringList(it.Data, "services")
}

// DisabledReason returns "external" or "disabled" for items that are not
// provisioned, and "" otherwise.
func (it Item) DisabledReason() string {
	switch {
	case it.External():
		return "external"
	case !it.Enabled():
		return "disabled"
	default:
		return ""
	}
}

// Hostnames derives the inventory hostnames for the item.
//
// A single "server" block yields one host named after the domain, the first
// service or the item name (underscores become hyphens), numbered -1..-N when
// server.count is greater than one. A "servers" list yields one
// "<name>-<role>" host per entry that has a role.
func (it Item) Hostnames() []string {
	if it.Data.Has("server") {
		base := it.Domain()
		if base == "" {
			if services := it.Services(); len(services) > 0 && services[0] != "" {
				base = services[0]
			}
		}
		if base == "" {
			base = it.Name
		}
		base = Hyphenate(base)

		count := 1
		if server, ok := it.Data.Sub("server"); ok {
			if v, ok := server.Get("count"); ok {
				if n, ok := vars.Int(v); ok {
					count = n
				}
			}
		}
		if count <= 1 {
			return []string{base}
		}

		hosts := make([]string, 0, count)
		for i := 1; i <= count; i++ {
			hosts = append(hosts, fmt.Sprintf("%s-%d", base, i))
		}
		return hosts
	}

	if v, ok := it.Data.Get("servers"); ok {
		list, _ := v.([]any)
		var hosts []string
		for _, entry := range list {
			server, ok := entry.(*vars.Map)
			if !ok {
				continue
			}
			role, ok := server.Get("role")
			if !ok || !vars.Truthy(role) {
				continue
			}
			hosts = append(hosts, fmt.Sprintf("%s-%v", Hyphenate(it.Name), role))
		}
		return hosts
	}

	return nil
}

// Hyphenate replaces underscores with hyphens.
func Hyphenate(s string) string {
	return strings.ReplaceAll(s, "_", "-")
}

// StringList reads key from m as a list of strings. Non-list values yield
// nil; non-string elements are formatted with %v.
func StringList(m *vars.Map, key string) []string {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(e))
	}
	return out
}
