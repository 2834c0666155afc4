// Package inventory assembles the Ansible dynamic inventory from the domain
// declaration and, when available, live Terraform or Vagrant state.
package inventory

import (
	"bytes"
	"encoding/json"
	"io"

	"allthingslinux/atl/internal/vars"
)

const (
	MetaKey = "_meta"
	AllKey  = "all"
)

const (
	ServiceGroupPrefix = "service_"
	EnvGroupPrefix     = "env_"
	RoleGroupPrefix    = "role_"
	UnknownRole        = "unknown"
)

// Inventory is one built inventory document. Groups and hosts keep the order
// in which they were first added.
type Inventory struct {
	hosts    []string
	hostvars map[string]*vars.Map

	groups     []string
	groupHosts map[string][]string

	overlaySource string
}

func newInventory() *Inventory {
	return &Inventory{
		hostvars:   make(map[string]*vars.Map),
		groupHosts: make(map[string][]string),
	}
}

// Hosts returns every host in first-seen order.
func (inv *Inventory) Hosts() []string {
	return append([]string(nil), inv.hosts...)
}

// Groups returns the all.children list.
func (inv *Inventory) Groups() []string {
	return append([]string(nil), inv.groups...)
}

// GroupHosts returns the hosts of group, or nil when the group does not exist.
func (inv *Inventory) GroupHosts(group string) []string {
	hosts, ok := inv.groupHosts[group]
	if !ok {
		return nil
	}
	return append([]string(nil), hosts...)
}

// HasGroup reports whether group is listed in all.children.
func (inv *Inventory) HasGroup(group string) bool {
	_, ok := inv.groupHosts[group]
	return ok
}

// HostVars returns the variables of host.
func (inv *Inventory) HostVars(host string) (*vars.Map, bool) {
	hv, ok := inv.hostvars[host]
	return hv, ok
}

// OverlaySource names the overlay whose data was merged in, or "" when the
// inventory was built from the declaration alone.
func (inv *Inventory) OverlaySource() string {
	return inv.overlaySource
}

func (inv *Inventory) setHost(host string, hv *vars.Map) {
	if _, ok := inv.hostvars[host]; !ok {
		inv.hosts = append(inv.hosts, host)
	}
	inv.hostvars[host] = hv
}

// ensureGroup lists group in all.children, with no hosts if it is new.
func (inv *Inventory) ensureGroup(group string) {
	if _, ok := inv.groupHosts[group]; !ok {
		inv.groups = append(inv.groups, group)
		inv.groupHosts[group] = []string{}
	}
}

// addToGroup creates group on first use and appends host unless already
// present.
func (inv *Inventory) addToGroup(group, host string) {
	inv.ensureGroup(group)
	hosts := inv.groupHosts[group]
	for _, h := range hosts {
		if h == host {
			return
		}
	}
	inv.groupHosts[group] = append(hosts, host)
}

// MarshalJSON renders the inventory in the layout Ansible expects from a
// dynamic inventory script: _meta, all, then every group in all.children
// order.
func (inv *Inventory) MarshalJSON() ([]byte, error) {
	hostvars := vars.New()
	for _, h := range inv.hosts {
		hostvars.Set(h, inv.hostvars[h])
	}

	doc := vars.New()
	doc.Set(MetaKey, vars.Of("hostvars", hostvars))
	doc.Set(AllKey, vars.Of("children", stringsToAny(inv.groups)))
	for _, g := range inv.groups {
		doc.Set(g, vars.Of("hosts", stringsToAny(inv.groupHosts[g])))
	}
	return doc.MarshalJSON()
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// Write encodes v as 2-space indented JSON followed by a newline. HTML
// characters are left unescaped.
func Write(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
