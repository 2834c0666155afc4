// Package overlay fetches live connection data (chiefly host addresses) from
// external tools so it can be layered over the static declaration.
//
// Two sources exist: Terraform, whose ansible_inventory output is keyed by
// group and host, and Vagrant, whose ssh-config is keyed by host only.
package overlay

import (
	"context"
	"errors"

	"allthingslinux/atl/internal/vars"
)

const (
	SourceTerraform = "terraform"
	SourceVagrant   = "vagrant"
)

// ErrUnavailable is wrapped by every Fetch error that means "this source has
// nothing to offer right now": the tool is missing, it failed, it timed out
// or it printed something unreadable.
var ErrUnavailable = errors.New("overlay unavailable")

// Provider yields an Overlay from one external source.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) (*Overlay, error)
}

// Overlay holds per-host variables from one source.
type Overlay struct {
	source string
	groups map[string]map[string]*vars.Map
	hosts  map[string]*vars.Map

	// declared is set when the source printed a non-empty document, even
	// one that names no hosts.
	declared bool
}

// NewGroupOverlay builds an overlay whose host data is scoped by group.
func NewGroupOverlay(source string, groups map[string]map[string]*vars.Map) *Overlay {
	return &Overlay{source: source, groups: groups}
}

// NewHostOverlay builds an overlay whose host data applies regardless of
// group.
func NewHostOverlay(source string, hosts map[string]*vars.Map) *Overlay {
	return &Overlay{source: source, hosts: hosts}
}

// Source names the tool the overlay came from.
func (o *Overlay) Source() string {
	if o == nil {
		return ""
	}
	return o.source
}

// HostCount returns the number of host entries carried by the overlay.
func (o *Overlay) HostCount() int {
	if o == nil {
		return 0
	}
	n := len(o.hosts)
	for _, hosts := range o.groups {
		n += len(hosts)
	}
	return n
}

// Empty reports whether the overlay carries no host data.
func (o *Overlay) Empty() bool {
	return o.HostCount() == 0
}

// Present reports whether the source offered anything at all. A source
// that is present takes precedence over later ones even when it carries no
// host data.
func (o *Overlay) Present() bool {
	return o != nil && (o.declared || o.HostCount() > 0)
}

// Lookup returns the variables the overlay supplies for host within group.
// It reports false when the overlay has nothing for that pair.
func (o *Overlay) Lookup(group, host string) (*vars.Map, bool) {
	if o == nil {
		return nil, false
	}
	if o.groups != nil {
		hv, ok := o.groups[group][host]
		if ok && hv.Len() > 0 {
			return hv, true
		}
	}
	if o.hosts != nil {
		if hv, ok := o.hosts[host]; ok && hv != nil {
			return hv, true
		}
	}
	return nil, false
}
